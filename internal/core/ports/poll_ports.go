package ports

import (
	"context"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type CreatePollInput struct {
	Creator  domain.Principal
	PollID   string
	Question string
	Options  []string
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) error
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
	Delete(ctx context.Context, sender domain.Principal, id string) error
}
