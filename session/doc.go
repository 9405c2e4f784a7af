// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session is the poll session controller: the one component that
talks to the poll store.

# Controller

Constructed once at startup with an injected store and token provider:

	ctrl := session.NewController(store.NewMemory(), identity.RandomTokenProvider{}, baseURL, slugSalt)

Every ballot-affecting operation (SubmitBallot, RemoveBallot,
RemoveOption, Recount, Reset) dispatches one atomic store transaction
whose body is a pure engine transition over the freshly-read state.
Configuration changes use last-write-wins patches; they have no
cross-field invariant with the ledger.

# Watch

Watch mirrors the store subscription into an explicit
Uninitialized/Subscribed/Detached state machine with a bounded update
channel, feeding the SSE stream and any other read-only view.
*/
package session
