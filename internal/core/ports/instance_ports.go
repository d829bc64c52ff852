package ports

import (
	"context"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type InstantiateInput struct {
	Sender domain.Principal
	// Admin defaults to Sender when empty.
	Admin string
}

type InstanceService interface {
	Instantiate(ctx context.Context, input InstantiateInput) (*domain.Config, error)
	GetConfig(ctx context.Context) (*domain.Config, error)
}
