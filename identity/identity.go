// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SentinelKey stands in for a name that normalizes to nothing under
// name-lock, so a blank submission still lands on exactly one ledger slot.
const SentinelKey = "anonymous"

// Resolve derives the de-duplication VoterKey for a submission attempt.
//
// Name-lock on a non-anonymous poll keys by the normalized display name.
// Every other combination keys by the device token, including the
// contradictory name-lock + anonymous configuration, where no name is
// collected; the fallback is applied here unconditionally rather than
// trusting the admin UI to prevent the combination.
func Resolve(anonymous bool, lockMode, submittedName, deviceToken string) string {
	if lockMode == "name" && !anonymous {
		key := NormalizeName(submittedName)
		if key == "" {
			return SentinelKey
		}
		return key
	}
	return deviceToken
}

// NormalizeName trims, collapses internal whitespace, and lowercases.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// TokenProvider issues stable per-poll device tokens. Tokens are scoped
// per poll: the same device voting in two polls gets independent keys.
type TokenProvider interface {
	Token(pollID string) (string, error)
}

// RandomTokenProvider mints a fresh UUID per request. The client persists
// the token locally and replays it in the X-Device-Token header; the
// server never needs to remember it, because the ballot ledger is the
// source of truth for which tokens have voted.
type RandomTokenProvider struct{}

func (RandomTokenProvider) Token(string) (string, error) {
	return uuid.NewString(), nil
}

// StaticTokenProvider hands out one fixed token per poll, lazily
// provisioned on first use. Test double for deterministic voter keys.
type StaticTokenProvider struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (p *StaticTokenProvider) Token(pollID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tokens == nil {
		p.tokens = map[string]string{}
	}
	tok, ok := p.tokens[pollID]
	if !ok {
		tok = uuid.NewString()
		p.tokens[pollID] = tok
	}
	return tok, nil
}
