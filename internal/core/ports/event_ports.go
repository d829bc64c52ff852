package ports

import (
	"context"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
