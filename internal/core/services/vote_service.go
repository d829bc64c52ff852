package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
	"github.com/vncsmyrnk/chainpoll/internal/metrics"
)

type voteService struct {
	store     ports.Store
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewVoteService(store ports.Store, publisher ports.EventPublisher, m *metrics.Metrics, log *zap.Logger) ports.VoteService {
	return &voteService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// Vote records input.Voter's selection. The poll and the prior ballot are
// read, the transition is resolved, and the ballot and poll are written back
// inside one transaction.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (transition *domain.VoteTransition, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("cast_vote", start, err) }()

	err = s.store.Update(ctx, func(t ports.Tables) error {
		poll, err := t.Polls().Get(input.PollID)
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}
		if poll == nil {
			return domain.ErrPollNotFound.Withf("poll %q not found", input.PollID)
		}

		prior, err := t.Ballots().Get(input.Voter, input.PollID)
		if err != nil {
			return fmt.Errorf("failed to load ballot: %w", err)
		}

		next, err := domain.ResolveVote(poll, prior, input.Option)
		if err != nil {
			return err
		}

		if err := t.Ballots().Save(input.Voter, input.PollID, &next.Ballot); err != nil {
			return fmt.Errorf("failed to save ballot: %w", err)
		}
		if next.TalliesChanged() {
			if err := t.Polls().Save(next.Poll); err != nil {
				return fmt.Errorf("failed to save poll: %w", err)
			}
		}
		transition = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(transition.Kind)
	s.log.Info("vote recorded",
		zap.String("poll_id", input.PollID),
		zap.Stringer("voter", input.Voter),
		zap.String("option", input.Option),
		zap.String("transition", string(transition.Kind)),
	)
	publish(ctx, s.publisher, s.log, domain.NewEvent(domain.ActionVote, map[string]string{
		"poll_id":    input.PollID,
		"voter":      input.Voter.String(),
		"option":     input.Option,
		"previous":   transition.Previous,
		"transition": string(transition.Kind),
	}))
	return transition, nil
}

// GetVote returns nil, nil when voter has no ballot on pollID.
func (s *voteService) GetVote(ctx context.Context, voter string, pollID string) (ballot *domain.Ballot, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("get_vote", start, err) }()

	principal, err := domain.ParsePrincipal(voter)
	if err != nil {
		return nil, err
	}

	err = s.store.View(ctx, func(t ports.Tables) error {
		var err error
		ballot, err = t.Ballots().Get(principal, pollID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return ballot, nil
}

func (s *voteService) Revoke(_ context.Context, voter domain.Principal, pollID string) error {
	err := domain.ErrNotSupported.Withf("revoking votes is not supported (poll %q)", pollID)
	s.metrics.Observe("revoke_vote", time.Now(), err)
	s.log.Debug("rejected vote revocation", zap.Stringer("voter", voter), zap.String("poll_id", pollID))
	return err
}
