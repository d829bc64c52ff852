package domain

import (
	"encoding/json"
	"fmt"
)

// MaxOptions is the largest number of options a poll can be created with.
const MaxOptions = 10

type Poll struct {
	ID       string    `json:"poll_id"`
	Creator  Principal `json:"creator"`
	Question string    `json:"question"`
	Options  []Option  `json:"options"`
}

// Option is a labelled choice and the number of ballots currently selecting it.
// It encodes as a [label, tally] pair.
type Option struct {
	Label string
	Tally uint64
}

func (o Option) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Label, o.Tally})
}

func (o *Option) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("option: expected [label, tally], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Label); err != nil {
		return fmt.Errorf("option label: %w", err)
	}
	if err := json.Unmarshal(pair[1], &o.Tally); err != nil {
		return fmt.Errorf("option tally: %w", err)
	}
	return nil
}

// NewPoll builds a poll with every option at a zero tally, keeping input order.
// Labels are not deduplicated.
func NewPoll(id string, creator Principal, question string, labels []string) (*Poll, error) {
	if id == "" {
		return nil, ErrEmptyPollID
	}
	if len(labels) > MaxOptions {
		return nil, ErrTooManyOptions.Withf("poll %q has %d options, at most %d are allowed", id, len(labels), MaxOptions)
	}
	if len(labels) == 0 {
		return nil, ErrNoOptions
	}

	options := make([]Option, 0, len(labels))
	for _, label := range labels {
		options = append(options, Option{Label: label})
	}

	return &Poll{
		ID:       id,
		Creator:  creator,
		Question: question,
		Options:  options,
	}, nil
}

// OptionIndex returns the position of the first option named label, or -1.
func (p *Poll) OptionIndex(label string) int {
	for i, opt := range p.Options {
		if opt.Label == label {
			return i
		}
	}
	return -1
}

// TotalVotes sums every option's tally.
func (p *Poll) TotalVotes() uint64 {
	var total uint64
	for _, opt := range p.Options {
		total += opt.Tally
	}
	return total
}

// Tally returns the tally of the option named label and whether it exists.
func (p *Poll) Tally(label string) (uint64, bool) {
	i := p.OptionIndex(label)
	if i < 0 {
		return 0, false
	}
	return p.Options[i].Tally, true
}

// Clone returns a deep copy of p.
func (p *Poll) Clone() *Poll {
	c := *p
	c.Options = append([]Option(nil), p.Options...)
	return &c
}
