package ports

import (
	"context"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

type VoteInput struct {
	Voter  domain.Principal
	PollID string
	Option string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.VoteTransition, error)
	// GetVote validates voter before looking the ballot up.
	GetVote(ctx context.Context, voter string, pollID string) (*domain.Ballot, error)
	Revoke(ctx context.Context, voter domain.Principal, pollID string) error
}
