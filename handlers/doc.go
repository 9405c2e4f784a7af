// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Classpoll API.

# Handler Types

Each handler is a struct with controller and config dependencies:

  - PollHandler: admin operations (create, config, options, close/reopen,
    ballot removal, recount, reset)
  - VotingHandler: device registration and ballot submission
  - ResultsHandler: student view, share reference, SSE event stream
  - ExportHandler: JSON/CSV export of the read accessors

Handlers are created via constructor functions that accept the session
controller and Config:

	pollHandler := handlers.NewPollHandler(ctrl, cfg)

# Admin Flow

	POST /polls                         → CreatePoll (get-or-create, returns admin_key)
	GET /polls/{id}/admin               → GetPollAdmin (ledger + live counts)
	PATCH /polls/{id}/config            → UpdateConfig (LWW patch)
	POST /polls/{id}/options            → AddOption
	DELETE /polls/{id}/options/{optionID} → RemoveOption (purges ballots, recounts)
	DELETE /polls/{id}/ballots/{voterKey} → RemoveBallot
	POST /polls/{id}/close|reopen       → manual close override
	POST /polls/{id}/recount|reset      → recovery / destructive reset
	GET /polls/{id}/export              → Export

Admin operations require the X-Admin-Key header.

# Student Flow

	POST /polls/{id}/devices/register → RegisterDevice (returns device_token)
	POST /polls/{id}/ballots          → SubmitBallot (X-Device-Token header)
	GET /polls/{id}                   → GetPoll (results gated by visibility)
	GET /polls/{id}/share             → GetShareRef
	GET /polls/{id}/events            → StreamEvents (SSE)

# Error Mapping

Engine and store rejections map to stable status codes in
rejectionStatus: closed poll and duplicate vote are 409 (terminal), bad
selections are 400, absent polls 404, backend failures 503 (retryable).
*/
package handlers
