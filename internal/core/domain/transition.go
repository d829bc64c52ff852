package domain

type TransitionKind string

const (
	// TransitionCast is a first vote by a voter on a poll.
	TransitionCast TransitionKind = "cast"
	// TransitionChanged moves an existing ballot to another option.
	TransitionChanged TransitionKind = "changed"
	// TransitionConfirmed re-selects the option already on the ballot.
	TransitionConfirmed TransitionKind = "confirmed"
)

// VoteTransition is the state a vote resolves to. Poll and Ballot are the
// values to persist; neither is written until both are known.
type VoteTransition struct {
	Kind     TransitionKind
	Previous string
	Ballot   Ballot
	Poll     *Poll
}

// ResolveVote computes the next ballot and poll for voter selecting option,
// given the poll and the voter's prior ballot (nil if none). poll is not
// modified.
func ResolveVote(poll *Poll, prior *Ballot, option string) (*VoteTransition, error) {
	newIdx := poll.OptionIndex(option)
	if newIdx < 0 {
		return nil, ErrInvalidOption.Withf("option %q is not part of poll %q", option, poll.ID)
	}

	next := poll.Clone()
	t := &VoteTransition{
		Ballot: Ballot{Option: option},
		Poll:   next,
	}

	switch {
	case prior == nil:
		t.Kind = TransitionCast
		next.Options[newIdx].Tally++
	case prior.Option == option:
		t.Kind = TransitionConfirmed
		t.Previous = prior.Option
	default:
		oldIdx := next.OptionIndex(prior.Option)
		if oldIdx < 0 {
			return nil, ErrTallyCorrupted.Withf("poll %q: ballot references unknown option %q", poll.ID, prior.Option)
		}
		if next.Options[oldIdx].Tally == 0 {
			return nil, ErrTallyCorrupted.Withf("poll %q: option %q has a ballot but a zero tally", poll.ID, prior.Option)
		}
		t.Kind = TransitionChanged
		t.Previous = prior.Option
		next.Options[oldIdx].Tally--
		next.Options[newIdx].Tally++
	}

	return t, nil
}

// TalliesChanged reports whether persisting t modifies the poll.
func (t *VoteTransition) TalliesChanged() bool {
	return t.Kind != TransitionConfirmed
}
