package domain

// Ballot is a voter's current selection on one poll. There is at most one
// ballot per (voter, poll) pair.
type Ballot struct {
	Option string `json:"option"`
}
