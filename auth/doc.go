// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and validation for the Classpoll
API.

# Admin Keys

Admin keys are HMAC-SHA256 over the poll ID with a server-side salt:
deterministic, verifiable without storage, and never persisted:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, providedKey, salt)

Admin endpoints require the key in the X-Admin-Key header.

# IDs and Slugs

GenerateID produces random hex identifiers (poll ids, option ids).
GenerateShareSlug derives the deterministic base62 slug embedded in the
share reference.
*/
package auth
