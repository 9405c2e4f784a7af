// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/classpoll/models"
)

var (
	// ErrNotFound signals a poll id absent from the store.
	ErrNotFound = errors.New("poll not found")
	// ErrUnavailable wraps transport/backend failures. Always retryable:
	// a failed attempt leaves poll state untouched.
	ErrUnavailable = errors.New("store unavailable")
)

// TxFunc is an atomic read-modify-write body. current is nil when the
// poll is absent. Returning (nil, nil) commits nothing; returning an
// error aborts with no write and the error passes through to the caller.
//
// The function must be pure: the store may invoke it more than once
// under contention (optimistic-retry semantics), so it must not mutate
// its input or carry side effects.
type TxFunc func(current *models.Poll) (*models.Poll, error)

// PollStore is point storage for poll documents. Any backend satisfies
// it: in-memory, SQL, or a realtime key-value store.
type PollStore interface {
	// Get returns the current poll, or ErrNotFound.
	Get(ctx context.Context, pollID string) (*models.Poll, error)

	// Set unconditionally overwrites the poll. Used only by create and
	// reset-to-defaults.
	Set(ctx context.Context, pollID string, p *models.Poll) error

	// Patch shallow-merges fields into the document, last-write-wins.
	// Only non-ballot configuration fields go through here.
	Patch(ctx context.Context, pollID string, fields map[string]any) error

	// Transact runs fn atomically against the current document and
	// reports whether a change was committed. Transactions serialize per
	// poll; different polls are independent.
	Transact(ctx context.Context, pollID string, fn TxFunc) (bool, error)

	// Subscribe registers a change callback. It fires once on attach with
	// the current value if present, and again after every committed
	// change from any writer. The returned handle detaches it.
	Subscribe(pollID string, onChange func(*models.Poll)) (unsubscribe func())
}

// mergePatch shallow-merges fields into the poll's JSON representation
// and decodes the result back through Normalize.
func mergePatch(p *models.Poll, fields map[string]any) (*models.Poll, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode poll: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode poll: %w", err)
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged poll: %w", err)
	}
	var out models.Poll
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("decode merged poll: %w", err)
	}
	return models.Normalize(&out), nil
}

// patchTx adapts a field merge into a TxFunc.
func patchTx(fields map[string]any) TxFunc {
	return func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		return mergePatch(current, fields)
	}
}

func decodePoll(raw []byte) (*models.Poll, error) {
	var p models.Poll
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode poll document: %w", err)
	}
	return models.Normalize(&p), nil
}
