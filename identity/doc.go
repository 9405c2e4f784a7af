// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity resolves the VoterKey used to de-duplicate ballots.

Resolve is a pure function of the poll's lock policy and the submission
inputs:

	key := identity.Resolve(poll.Anonymous, poll.LockMode, req.Name, deviceToken)

Name-lock keys by the normalized display name (trimmed, whitespace
collapsed, lowercased; empty maps to a sentinel). Device-lock, and any
anonymous poll, keys by a per-poll device token issued through a
TokenProvider, injectable so tests can pin tokens.
*/
package identity
