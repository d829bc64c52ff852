package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

type auditService struct {
	store ports.Store
	log   *zap.Logger
}

func NewAuditService(store ports.Store, log *zap.Logger) ports.AuditService {
	return &auditService{store: store, log: log}
}

// AuditTallies recounts every ballot against the stored tallies within a
// single snapshot.
func (s *auditService) AuditTallies(ctx context.Context) (*ports.AuditReport, error) {
	var report *ports.AuditReport
	err := s.store.View(ctx, func(t ports.Tables) error {
		polls, err := t.Polls().List()
		if err != nil {
			return fmt.Errorf("failed to list polls: %w", err)
		}

		byID := make(map[string]*domain.Poll, len(polls))
		counted := make(map[string][]uint64, len(polls))
		for _, p := range polls {
			byID[p.ID] = p
			counted[p.ID] = make([]uint64, len(p.Options))
		}

		r := &ports.AuditReport{Polls: len(polls), Discrepancies: []ports.TallyDiscrepancy{}}
		err = t.Ballots().ForEach(func(voter domain.Principal, pollID string, ballot *domain.Ballot) error {
			r.Ballots++
			poll, ok := byID[pollID]
			if !ok {
				r.Discrepancies = append(r.Discrepancies, ports.TallyDiscrepancy{
					Reason:  ports.ReasonUnknownPoll,
					PollID:  pollID,
					Option:  ballot.Option,
					Counted: 1,
				})
				return nil
			}
			i := poll.OptionIndex(ballot.Option)
			if i < 0 {
				r.Discrepancies = append(r.Discrepancies, ports.TallyDiscrepancy{
					Reason:  ports.ReasonUnknownOption,
					PollID:  pollID,
					Option:  ballot.Option,
					Counted: 1,
				})
				return nil
			}
			counted[pollID][i]++
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to scan ballots: %w", err)
		}

		for _, p := range polls {
			for i, opt := range p.Options {
				if opt.Tally != counted[p.ID][i] {
					r.Discrepancies = append(r.Discrepancies, ports.TallyDiscrepancy{
						Reason:  ports.ReasonTallyMismatch,
						PollID:  p.ID,
						Option:  opt.Label,
						Stored:  opt.Tally,
						Counted: counted[p.ID][i],
					})
				}
			}
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tally audit finished",
		zap.Int("polls", report.Polls),
		zap.Int("ballots", report.Ballots),
		zap.Int("discrepancies", len(report.Discrepancies)),
	)
	return report, nil
}
