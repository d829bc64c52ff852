package ports

import (
	"context"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
)

// Tables groups the typed repositories bound to one transaction.
type Tables interface {
	Config() ConfigRepository
	Polls() PollRepository
	Ballots() BallotRepository
}

// Store runs fn against the typed tables inside a single storage transaction.
type Store interface {
	View(ctx context.Context, fn func(t Tables) error) error
	Update(ctx context.Context, fn func(t Tables) error) error
}

type ConfigRepository interface {
	// Get returns nil, nil before instantiate.
	Get() (*domain.Config, error)
	Save(cfg *domain.Config) error
}

type PollRepository interface {
	// Get returns nil, nil when no poll is stored under id.
	Get(id string) (*domain.Poll, error)
	Save(poll *domain.Poll) error
	// List returns every poll in ascending id order.
	List() ([]*domain.Poll, error)
}

type BallotRepository interface {
	// Get returns nil, nil when voter has not voted on pollID.
	Get(voter domain.Principal, pollID string) (*domain.Ballot, error)
	Save(voter domain.Principal, pollID string, ballot *domain.Ballot) error
	// ForEach visits every stored ballot in key order.
	ForEach(fn func(voter domain.Principal, pollID string, ballot *domain.Ballot) error) error
}
