// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// NewDefaultPoll builds a fresh poll for the given ID: two placeholder
// options, an empty ballot ledger, single-choice, results always visible.
func NewDefaultPoll(id string, optionIDs [2]string, now time.Time) *Poll {
	return &Poll{
		ID:          id,
		Title:       DefaultTitle,
		Description: "",
		VoteLimit:   MinVoteLimit,
		Options: []Option{
			{ID: optionIDs[0], Label: "Option 1"},
			{ID: optionIDs[1], Label: "Option 2"},
		},
		Ballots:        map[string]Ballot{},
		Anonymous:      false,
		VisibilityMode: VisibilityAlways,
		ExpectedVoters: 0,
		ManualClosed:   false,
		LockMode:       LockDevice,
		UpdatedAt:      now,
	}
}

// Clone deep-copies the poll so that state transitions never alias the
// stored snapshot. The store may re-invoke a transaction function under
// contention, so the input snapshot must stay untouched.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	out := *p
	out.Options = make([]Option, len(p.Options))
	copy(out.Options, p.Options)
	out.Ballots = make(map[string]Ballot, len(p.Ballots))
	for key, b := range p.Ballots {
		nb := b
		nb.IDs = make([]string, len(b.IDs))
		copy(nb.IDs, b.IDs)
		if b.Name != nil {
			name := *b.Name
			nb.Name = &name
		}
		out.Ballots[key] = nb
	}
	if p.DeadlineAt != nil {
		d := *p.DeadlineAt
		out.DeadlineAt = &d
	}
	return &out
}

// Normalize coerces a document read from the store into a valid shape.
// The store boundary never trusts payload shape: missing maps and slices
// are filled in, enum fields fall back to defaults, and the vote limit is
// clamped into its legal range.
func Normalize(p *Poll) *Poll {
	if p == nil {
		return nil
	}
	if p.Options == nil {
		p.Options = []Option{}
	}
	if p.Ballots == nil {
		p.Ballots = map[string]Ballot{}
	}
	for key, b := range p.Ballots {
		if b.IDs == nil {
			b.IDs = []string{}
			p.Ballots[key] = b
		}
	}
	if p.VoteLimit < MinVoteLimit {
		p.VoteLimit = MinVoteLimit
	}
	if p.VoteLimit > MaxVoteLimit {
		p.VoteLimit = MaxVoteLimit
	}
	switch p.VisibilityMode {
	case VisibilityAlways, VisibilityHidden, VisibilityDeadline:
	default:
		p.VisibilityMode = VisibilityAlways
	}
	switch p.LockMode {
	case LockDevice, LockName:
	default:
		p.LockMode = LockDevice
	}
	if p.ExpectedVoters < 0 {
		p.ExpectedVoters = 0
	}
	return p
}

// OptionByID returns a pointer into p.Options, or nil.
func (p *Poll) OptionByID(id string) *Option {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// HasOption reports whether an option with the given ID currently exists.
func (p *Poll) HasOption(id string) bool {
	return p.OptionByID(id) != nil
}

// TotalVotes sums the denormalized per-option counts.
func (p *Poll) TotalVotes() int {
	total := 0
	for i := range p.Options {
		total += p.Options[i].Votes
	}
	return total
}

// ParticipantCount is the number of ballots in the ledger.
func (p *Poll) ParticipantCount() int {
	return len(p.Ballots)
}
