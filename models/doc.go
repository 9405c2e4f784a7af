// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the poll aggregate and the request/response types
for the Classpoll API.

# Poll Aggregate

Poll is the root document persisted by the store: configuration fields
plus an ordered option list and the ballot ledger (a map from VoterKey to
Ballot). Option.Votes is denormalized and must always equal the number of
ballots selecting that option; the engine package owns that invariant.

# Shape Coercion

Documents read back from a store pass through Normalize, which repairs
missing maps/slices and out-of-range enum fields rather than trusting the
persisted shape:

	poll = models.Normalize(poll)

# Cloning

State transitions never mutate a store snapshot in place. Clone produces
a deep copy, which matters because the store may re-invoke a transaction
function under contention:

	next := poll.Clone()
*/
package models
