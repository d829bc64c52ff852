package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes events to the logger. It is used when no broker is
// configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, e domain.Event) error {
	fields := make([]zap.Field, 0, len(e.Attributes)+2)
	fields = append(fields, zap.Stringer("event_id", e.ID), zap.String("action", e.Action))
	for k, v := range e.Attributes {
		fields = append(fields, zap.String(k, v))
	}
	p.log.Info("event", fields...)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
