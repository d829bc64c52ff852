package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

func TestAuditCleanState(t *testing.T) {
	env := newTestEnv(t)
	env.createPoll(t, "p1", "A", "B")
	env.createPoll(t, "p2", "yes", "no")
	env.vote(t, "v1", "p1", "A")
	env.vote(t, "v2", "p1", "A")
	env.vote(t, "v1", "p1", "B")
	env.vote(t, "v1", "p2", "no")

	report, err := env.audit.AuditTallies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Polls)
	assert.Equal(t, 3, report.Ballots)
	assert.Empty(t, report.Discrepancies)
}

func TestAuditReportsDiscrepancies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createPoll(t, "p1", "A", "B")
	env.vote(t, "v1", "p1", "A")

	require.NoError(t, env.store.Update(ctx, func(tx ports.Tables) error {
		poll, err := tx.Polls().Get("p1")
		if err != nil {
			return err
		}
		poll.Options[1].Tally = 4
		if err := tx.Polls().Save(poll); err != nil {
			return err
		}
		if err := tx.Ballots().Save("v2", "ghost", &domain.Ballot{Option: "A"}); err != nil {
			return err
		}
		return tx.Ballots().Save("v3", "p1", &domain.Ballot{Option: "Z"})
	}))

	report, err := env.audit.AuditTallies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Polls)
	assert.Equal(t, 3, report.Ballots)
	assert.ElementsMatch(t, []ports.TallyDiscrepancy{
		{Reason: ports.ReasonUnknownPoll, PollID: "ghost", Option: "A", Counted: 1},
		{Reason: ports.ReasonUnknownOption, PollID: "p1", Option: "Z", Counted: 1},
		{Reason: ports.ReasonTallyMismatch, PollID: "p1", Option: "B", Stored: 4, Counted: 0},
	}, report.Discrepancies)
}
