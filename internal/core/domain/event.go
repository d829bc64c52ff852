package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionInstantiate = "instantiate"
	ActionCreatePoll  = "create_poll"
	ActionVote        = "vote"
)

// Event describes a committed state change.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Action     string            `json:"action"`
	Attributes map[string]string `json:"attributes"`
	EmittedAt  time.Time         `json:"emitted_at"`
}

func NewEvent(action string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Action:     action,
		Attributes: attrs,
		EmittedAt:  time.Now().UTC(),
	}
}
