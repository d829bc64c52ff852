package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

// publish hands a committed event to the publisher. The state change is
// already durable, so a failure is only logged.
func publish(ctx context.Context, publisher ports.EventPublisher, log *zap.Logger, event domain.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("action", event.Action),
			zap.Stringer("event_id", event.ID),
			zap.Error(err),
		)
	}
}
