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

type pollService struct {
	store     ports.Store
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewPollService(store ports.Store, publisher ports.EventPublisher, m *metrics.Metrics, log *zap.Logger) ports.PollService {
	return &pollService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// Create stores a new poll. Reusing an id replaces the stored poll.
func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (err error) {
	start := time.Now()
	defer func() { s.metrics.Observe("create_poll", start, err) }()

	poll, err := domain.NewPoll(input.PollID, input.Creator, input.Question, input.Options)
	if err != nil {
		return err
	}

	var replaced bool
	err = s.store.Update(ctx, func(t ports.Tables) error {
		existing, err := t.Polls().Get(poll.ID)
		if err != nil {
			return fmt.Errorf("failed to load poll: %w", err)
		}
		replaced = existing != nil
		return t.Polls().Save(poll)
	})
	if err != nil {
		return err
	}

	if replaced {
		s.log.Warn("poll id reused, previous poll replaced", zap.String("poll_id", poll.ID))
	}
	s.log.Info("poll created",
		zap.String("poll_id", poll.ID),
		zap.Stringer("creator", poll.Creator),
		zap.Int("options", len(poll.Options)),
	)
	publish(ctx, s.publisher, s.log, domain.NewEvent(domain.ActionCreatePoll, map[string]string{
		"poll_id": poll.ID,
		"creator": poll.Creator.String(),
		"options": fmt.Sprint(len(poll.Options)),
	}))
	return nil
}

// GetPoll returns nil, nil when the poll does not exist.
func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	start := time.Now()
	var poll *domain.Poll
	err := s.store.View(ctx, func(t ports.Tables) error {
		var err error
		poll, err = t.Polls().Get(id)
		return err
	})
	s.metrics.Observe("get_poll", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

func (s *pollService) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	start := time.Now()
	var polls []*domain.Poll
	err := s.store.View(ctx, func(t ports.Tables) error {
		var err error
		polls, err = t.Polls().List()
		return err
	})
	s.metrics.Observe("list_polls", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	return polls, nil
}

func (s *pollService) Delete(_ context.Context, sender domain.Principal, id string) error {
	err := domain.ErrNotSupported.Withf("deleting polls is not supported (poll %q)", id)
	s.metrics.Observe("delete_poll", time.Now(), err)
	s.log.Debug("rejected poll deletion", zap.Stringer("sender", sender), zap.String("poll_id", id))
	return err
}
