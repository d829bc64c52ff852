package kvstate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	kv := memory.New()
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv)
}

func TestConfigTable(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.View(ctx, func(tb ports.Tables) error {
		cfg, err := tb.Config().Get()
		require.NoError(t, err)
		assert.Nil(t, cfg)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tb ports.Tables) error {
		return tb.Config().Save(&domain.Config{Admin: "addr1"})
	}))

	err = s.View(ctx, func(tb ports.Tables) error {
		cfg, err := tb.Config().Get()
		require.NoError(t, err)
		assert.Equal(t, &domain.Config{Admin: "addr1"}, cfg)
		return nil
	})
	require.NoError(t, err)
}

func TestPollTableListInKeyOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tb ports.Tables) error {
		for _, id := range []string{"p2", "p10", "p1"} {
			poll, err := domain.NewPoll(id, "addr1", "q?", []string{"A", "B"})
			require.NoError(t, err)
			if err := tb.Polls().Save(poll); err != nil {
				return err
			}
		}
		// Ballots share the store but must not show up as polls.
		return tb.Ballots().Save("addr1", "p1", &domain.Ballot{Option: "A"})
	}))

	err := s.View(ctx, func(tb ports.Tables) error {
		polls, err := tb.Polls().List()
		require.NoError(t, err)
		ids := make([]string, 0, len(polls))
		for _, p := range polls {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"p1", "p10", "p2"}, ids)
		assert.Equal(t, []domain.Option{{Label: "A"}, {Label: "B"}}, polls[0].Options)
		return nil
	})
	require.NoError(t, err)
}

func TestPollTableListEmpty(t *testing.T) {
	s := newStore(t)
	err := s.View(context.Background(), func(tb ports.Tables) error {
		polls, err := tb.Polls().List()
		require.NoError(t, err)
		assert.NotNil(t, polls)
		assert.Empty(t, polls)
		return nil
	})
	require.NoError(t, err)
}

func TestPollTableGetMissing(t *testing.T) {
	s := newStore(t)
	err := s.View(context.Background(), func(tb ports.Tables) error {
		poll, err := tb.Polls().Get("nope")
		require.NoError(t, err)
		assert.Nil(t, poll)
		return nil
	})
	require.NoError(t, err)
}

func TestBallotTable(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tb ports.Tables) error {
		if err := tb.Ballots().Save("addr2", "p1", &domain.Ballot{Option: "B"}); err != nil {
			return err
		}
		return tb.Ballots().Save("addr1", "p1", &domain.Ballot{Option: "A"})
	}))

	err := s.View(ctx, func(tb ports.Tables) error {
		b, err := tb.Ballots().Get("addr1", "p1")
		require.NoError(t, err)
		assert.Equal(t, &domain.Ballot{Option: "A"}, b)

		b, err = tb.Ballots().Get("addr1", "p2")
		require.NoError(t, err)
		assert.Nil(t, b)

		var seen []string
		err = tb.Ballots().ForEach(func(voter domain.Principal, pollID string, ballot *domain.Ballot) error {
			seen = append(seen, voter.String()+"/"+pollID+"="+ballot.Option)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"addr1/p1=A", "addr2/p1=B"}, seen)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateRollsBackAllTables(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := s.Update(ctx, func(tb ports.Tables) error {
		poll, _ := domain.NewPoll("p1", "addr1", "q?", []string{"A"})
		require.NoError(t, tb.Polls().Save(poll))
		require.NoError(t, tb.Ballots().Save("addr1", "p1", &domain.Ballot{Option: "A"}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	err = s.View(ctx, func(tb ports.Tables) error {
		poll, err := tb.Polls().Get("p1")
		require.NoError(t, err)
		assert.Nil(t, poll)
		b, err := tb.Ballots().Get("addr1", "p1")
		require.NoError(t, err)
		assert.Nil(t, b)
		return nil
	})
	require.NoError(t, err)
}
