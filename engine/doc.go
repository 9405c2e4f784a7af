// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine contains the tally engine: pure transitions over a poll
snapshot that keep the denormalized option counts consistent with the
ballot ledger.

# Transitions

Every operation takes a poll and returns a new poll; the input snapshot
is never mutated. That makes the transitions safe to run inside a store
transaction function, which may be invoked more than once under
contention:

	next, err := engine.SubmitBallot(poll, voterKey, ids, name, time.Now())

Transitions: Recount, SubmitBallot, RemoveBallot, AddOption,
RemoveOption, ResetToDefaults.

# Rejections

Ballot submission rejects with sentinel errors in a fixed order:
ErrAlreadyClosed, ErrEmptyVoterKey, ErrNoSelection, ErrDuplicateVote.
A rejection returns the input poll unchanged. DuplicateVote must be
decided inside the same atomic transaction that writes the ballot;
splitting the check from the write lets two concurrent submissions with
the same key both pass.

# Invariant

After every transition, each option's Votes equals the number of ballots
whose IDs contain that option. Recount repairs drift on demand and is
idempotent.
*/
package engine
