package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvstate"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
	"github.com/vncsmyrnk/chainpoll/internal/metrics"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

// published returns the events handed to the publisher for action.
func (m *mockPublisher) published(action string) []domain.Event {
	var events []domain.Event
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		if e := call.Arguments.Get(1).(domain.Event); e.Action == action {
			events = append(events, e)
		}
	}
	return events
}

type testEnv struct {
	store     *kvstate.Store
	publisher *mockPublisher
	metrics   *metrics.Metrics
	instance  ports.InstanceService
	polls     ports.PollService
	votes     ports.VoteService
	audit     ports.AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, zaptest.NewLogger(t))
}

func newTestEnvWithLogger(t *testing.T, log *zap.Logger) *testEnv {
	t.Helper()

	kv := memory.New()
	t.Cleanup(func() { _ = kv.Close() })

	store := kvstate.New(kv)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	m := metrics.New("chainpoll_test", prometheus.NewRegistry())

	return &testEnv{
		store:     store,
		publisher: pub,
		metrics:   m,
		instance:  NewInstanceService(store, pub, m, log),
		polls:     NewPollService(store, pub, m, log),
		votes:     NewVoteService(store, pub, m, log),
		audit:     NewAuditService(store, log),
	}
}

func (e *testEnv) createPoll(t *testing.T, id string, options ...string) {
	t.Helper()
	err := e.polls.Create(context.Background(), ports.CreatePollInput{
		Creator:  "alice",
		PollID:   id,
		Question: "what about " + id + "?",
		Options:  options,
	})
	if err != nil {
		t.Fatalf("create poll %s: %v", id, err)
	}
}

func (e *testEnv) vote(t *testing.T, voter domain.Principal, pollID, option string) *domain.VoteTransition {
	t.Helper()
	tr, err := e.votes.Vote(context.Background(), ports.VoteInput{Voter: voter, PollID: pollID, Option: option})
	if err != nil {
		t.Fatalf("vote %s on %s: %v", voter, pollID, err)
	}
	return tr
}

func (e *testEnv) tallies(t *testing.T, pollID string) map[string]uint64 {
	t.Helper()
	poll, err := e.polls.GetPoll(context.Background(), pollID)
	if err != nil || poll == nil {
		t.Fatalf("get poll %s: %v", pollID, err)
	}
	out := make(map[string]uint64, len(poll.Options))
	for _, opt := range poll.Options {
		out[opt.Label] = opt.Tally
	}
	return out
}
