package ports

import (
	"context"
)

const (
	ReasonTallyMismatch = "tally_mismatch"
	ReasonUnknownPoll   = "unknown_poll"
	ReasonUnknownOption = "unknown_option"
)

// TallyDiscrepancy is an option whose stored tally does not match the number
// of ballots selecting it.
type TallyDiscrepancy struct {
	Reason  string `json:"reason"`
	PollID  string `json:"poll_id"`
	Option  string `json:"option"`
	Stored  uint64 `json:"stored"`
	Counted uint64 `json:"counted"`
}

type AuditReport struct {
	Polls         int                `json:"polls"`
	Ballots       int                `json:"ballots"`
	Discrepancies []TallyDiscrepancy `json:"discrepancies"`
}

type AuditService interface {
	AuditTallies(ctx context.Context) (*AuditReport, error)
}
