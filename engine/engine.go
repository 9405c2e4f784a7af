// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/classpoll/lifecycle"
	"github.com/danielhkuo/classpoll/models"
)

// Logical rejections returned by ballot-affecting operations. These are
// result values for the caller to map to a response, never panics.
var (
	ErrAlreadyClosed = errors.New("poll is closed")
	ErrEmptyVoterKey = errors.New("empty voter key")
	ErrNoSelection   = errors.New("ballot has no selection")
	ErrDuplicateVote = errors.New("voter already has a ballot")
)

// Recount recomputes every option's vote count from the ballot ledger.
// Idempotent and side-effect free; ballot ids that no longer match a
// current option simply do not count. Exposed as an admin action for
// self-healing against drift.
func Recount(p *models.Poll) *models.Poll {
	out := p.Clone()
	for i := range out.Options {
		out.Options[i].Votes = 0
	}
	for _, b := range out.Ballots {
		for _, id := range b.IDs {
			if opt := out.OptionByID(id); opt != nil {
				opt.Votes++
			}
		}
	}
	return out
}

// SubmitBallot applies one voter's ballot at most once.
//
// Selections referencing unknown options are dropped and the remainder is
// truncated to the vote limit rather than rejected; a ballot is only
// refused outright when nothing usable remains.
func SubmitBallot(p *models.Poll, voterKey string, selected []string, name string, now time.Time) (*models.Poll, error) {
	if lifecycle.IsClosed(p) {
		return p, ErrAlreadyClosed
	}
	if strings.TrimSpace(voterKey) == "" {
		return p, ErrEmptyVoterKey
	}
	if len(selected) == 0 {
		return p, ErrNoSelection
	}

	ids := clampSelection(p, selected)
	if len(ids) == 0 {
		return p, ErrNoSelection
	}

	if _, taken := p.Ballots[voterKey]; taken {
		return p, ErrDuplicateVote
	}

	out := p.Clone()
	ballot := models.Ballot{IDs: ids, At: now}
	if !out.Anonymous && name != "" {
		n := name
		ballot.Name = &n
	}
	out.Ballots[voterKey] = ballot
	for _, id := range ids {
		out.OptionByID(id).Votes++
	}
	out.UpdatedAt = now
	return out, nil
}

// clampSelection keeps only ids of currently-present options, drops
// duplicates preserving order, and truncates to the vote limit.
func clampSelection(p *models.Poll, selected []string) []string {
	ids := make([]string, 0, p.VoteLimit)
	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if seen[id] || !p.HasOption(id) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == p.VoteLimit {
			break
		}
	}
	return ids
}

// RemoveBallot deletes a voter's ballot and decrements the touched
// options. Removing an absent key is a no-op. Counts floor at zero; they
// never go negative if the tally invariant held beforehand.
func RemoveBallot(p *models.Poll, voterKey string, now time.Time) *models.Poll {
	b, ok := p.Ballots[voterKey]
	if !ok {
		return p
	}
	out := p.Clone()
	delete(out.Ballots, voterKey)
	for _, id := range b.IDs {
		if opt := out.OptionByID(id); opt != nil && opt.Votes > 0 {
			opt.Votes--
		}
	}
	out.UpdatedAt = now
	return out
}

// AddOption appends a fresh zero-vote option. The id is generated by the
// caller so the transition stays pure. An empty label defaults to a
// positional placeholder.
func AddOption(p *models.Poll, id, label string, now time.Time) *models.Poll {
	out := p.Clone()
	if label == "" {
		label = fmt.Sprintf("Option %d", len(out.Options)+1)
	}
	out.Options = append(out.Options, models.Option{ID: id, Label: label})
	out.UpdatedAt = now
	return out
}

// RemoveOption drops the option, purges its id from every ballot, and
// recounts so the tally invariant holds over the remaining ids. Removing
// an unknown option id is a no-op.
func RemoveOption(p *models.Poll, optionID string, now time.Time) *models.Poll {
	if !p.HasOption(optionID) {
		return p
	}
	out := p.Clone()
	kept := out.Options[:0]
	for _, opt := range out.Options {
		if opt.ID != optionID {
			kept = append(kept, opt)
		}
	}
	out.Options = kept
	for key, b := range out.Ballots {
		filtered := b.IDs[:0]
		for _, id := range b.IDs {
			if id != optionID {
				filtered = append(filtered, id)
			}
		}
		b.IDs = filtered
		out.Ballots[key] = b
	}
	out = Recount(out)
	out.UpdatedAt = now
	return out
}

// ResetToDefaults replaces the whole aggregate with a fresh default poll,
// preserving only the poll id. Destructive; the caller confirms intent.
func ResetToDefaults(p *models.Poll, optionIDs [2]string, now time.Time) *models.Poll {
	return models.NewDefaultPoll(p.ID, optionIDs, now)
}
