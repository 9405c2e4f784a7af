// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists poll documents behind the PollStore interface.

# Contract

Three backends are provided:

  - Memory: mutex-per-poll map; default backend and the test double
  - SQL: one JSON document row per poll with a version counter, on
    PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite)
  - Redis: one JSON document per key via go-redis

All three share the same Transact contract: the update function receives
the current document (nil when absent), and the commit is an atomic
read-modify-write. Under contention the function is re-invoked against
fresh state, so it must be pure (no side effects, no input mutation):

	committed, err := st.Transact(ctx, pollID, func(cur *models.Poll) (*models.Poll, error) {
		return engine.SubmitBallot(cur, key, ids, name, now)
	})

This is what makes the duplicate-vote presence check race-free: the
check and the ballot insert happen inside one transaction attempt.

# Subscriptions

Subscribe fires once on attach with the current value if present and
again after every committed change. Fan-out is an in-process hub in all
backends; each subscriber receives its own clone.
*/
package store
