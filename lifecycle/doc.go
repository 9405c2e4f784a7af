// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle derives the poll's open/closed state and result
visibility from configuration, live counts, and wall-clock time.

Both derivations are pure functions recomputed on every use; there is no
stored "closed" or "revealed" flag beyond the admin's ManualClosed
override:

	if lifecycle.IsClosed(poll) { ... }
	show := lifecycle.ResultsVisible(poll, models.AudienceStudent, time.Now())

Submission gating uses IsClosed at transaction time, not render time.
*/
package lifecycle
