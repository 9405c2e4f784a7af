// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/classpoll/auth"
	"github.com/danielhkuo/classpoll/engine"
	"github.com/danielhkuo/classpoll/identity"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/store"
)

// Controller orchestrates the tally engine, the identity resolver, and
// the poll store. It is the only component that talks to the store;
// every ballot-affecting operation is dispatched as one atomic store
// transaction that re-reads current state inside the attempt.
type Controller struct {
	store    store.PollStore
	tokens   identity.TokenProvider
	baseURL  string
	slugSalt string
}

func NewController(st store.PollStore, tokens identity.TokenProvider, baseURL, slugSalt string) *Controller {
	return &Controller{store: st, tokens: tokens, baseURL: baseURL, slugSalt: slugSalt}
}

// GetOrCreate returns the poll for the given id, creating a default poll
// when absent. An empty id mints a fresh one. Idempotent: racing creates
// for the same id commit exactly one default document.
func (c *Controller) GetOrCreate(ctx context.Context, pollID string) (*models.Poll, bool, error) {
	if pollID == "" {
		id, err := auth.GenerateID(8)
		if err != nil {
			return nil, false, fmt.Errorf("generate poll id: %w", err)
		}
		pollID = id
	}

	optA, err := auth.GenerateID(6)
	if err != nil {
		return nil, false, fmt.Errorf("generate option id: %w", err)
	}
	optB, err := auth.GenerateID(6)
	if err != nil {
		return nil, false, fmt.Errorf("generate option id: %w", err)
	}
	now := time.Now()

	created, err := c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current != nil {
			return nil, nil
		}
		return models.NewDefaultPoll(pollID, [2]string{optA, optB}, now), nil
	})
	if err != nil {
		return nil, false, err
	}

	poll, err := c.store.Get(ctx, pollID)
	if err != nil {
		return nil, false, err
	}
	return poll, created, nil
}

// Get reads the current poll snapshot.
func (c *Controller) Get(ctx context.Context, pollID string) (*models.Poll, error) {
	return c.store.Get(ctx, pollID)
}

// ResolveVoterKey derives the de-duplication key for a submission
// attempt under the poll's lock policy.
func (c *Controller) ResolveVoterKey(p *models.Poll, submittedName, deviceToken string) string {
	return identity.Resolve(p.Anonymous, p.LockMode, submittedName, deviceToken)
}

// DeviceToken provisions a per-poll device token.
func (c *Controller) DeviceToken(pollID string) (string, error) {
	return c.tokens.Token(pollID)
}

// SubmitBallot applies one voter's ballot at most once. The duplicate
// check runs inside the transaction, so a retried or concurrent
// submission with the same key is rejected rather than double-counted.
func (c *Controller) SubmitBallot(ctx context.Context, pollID, voterKey string, optionIDs []string, name string) (*models.Poll, error) {
	now := time.Now()
	var result *models.Poll
	_, err := c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		next, err := engine.SubmitBallot(current, voterKey, optionIDs, name, now)
		if err != nil {
			return nil, err
		}
		result = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveBallot deletes a voter's ballot. Removing an absent key is a
// committed no-op with no store write.
func (c *Controller) RemoveBallot(ctx context.Context, pollID, voterKey string) (*models.Poll, error) {
	now := time.Now()
	var result *models.Poll
	_, err := c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		next := engine.RemoveBallot(current, voterKey, now)
		if next == current {
			result = current
			return nil, nil
		}
		result = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddOption appends a new option and returns its id.
func (c *Controller) AddOption(ctx context.Context, pollID, label string) (string, error) {
	optionID, err := auth.GenerateID(6)
	if err != nil {
		return "", fmt.Errorf("generate option id: %w", err)
	}
	now := time.Now()
	_, err = c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		return engine.AddOption(current, optionID, label, now), nil
	})
	if err != nil {
		return "", err
	}
	return optionID, nil
}

// RemoveOption drops an option and purges it from every ballot in the
// same transaction, so a concurrent submission can neither resurrect the
// option nor corrupt the counts.
func (c *Controller) RemoveOption(ctx context.Context, pollID, optionID string) (*models.Poll, error) {
	now := time.Now()
	var result *models.Poll
	_, err := c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		next := engine.RemoveOption(current, optionID, now)
		if next == current {
			result = current
			return nil, nil
		}
		result = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Recount recomputes all option counts from the ledger. Admin recovery
// tool against drift.
func (c *Controller) Recount(ctx context.Context, pollID string) (*models.Poll, error) {
	var result *models.Poll
	_, err := c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		result = engine.Recount(current)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reset replaces the aggregate with a fresh default poll, preserving
// only the poll id. Runs transactionally so in-flight submissions
// serialize against it.
func (c *Controller) Reset(ctx context.Context, pollID string) (*models.Poll, error) {
	optA, err := auth.GenerateID(6)
	if err != nil {
		return nil, fmt.Errorf("generate option id: %w", err)
	}
	optB, err := auth.GenerateID(6)
	if err != nil {
		return nil, fmt.Errorf("generate option id: %w", err)
	}
	now := time.Now()
	var result *models.Poll
	_, err = c.store.Transact(ctx, pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		result = engine.ResetToDefaults(current, [2]string{optA, optB}, now)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close sets the admin close override. Reopen clears it; if the
// auto-close threshold is still met the poll stays effectively closed.
func (c *Controller) Close(ctx context.Context, pollID string) error {
	return c.store.Patch(ctx, pollID, map[string]any{
		"manual_closed": true,
		"updated_at":    time.Now(),
	})
}

func (c *Controller) Reopen(ctx context.Context, pollID string) error {
	return c.store.Patch(ctx, pollID, map[string]any{
		"manual_closed": false,
		"updated_at":    time.Now(),
	})
}

// UpdateConfig applies a last-write-wins patch of configuration fields.
// Config fields carry no cross-field invariant with the ballot ledger,
// so no transaction is needed; the display version is bumped so cached
// share renders invalidate.
func (c *Controller) UpdateConfig(ctx context.Context, pollID string, req models.ConfigPatchRequest) (*models.Poll, error) {
	current, err := c.store.Get(ctx, pollID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"updated_at":      time.Now(),
		"display_version": current.DisplayVersion + 1,
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.VoteLimit != nil {
		fields["vote_limit"] = *req.VoteLimit
	}
	if req.Anonymous != nil {
		fields["anonymous"] = *req.Anonymous
	}
	if req.VisibilityMode != nil {
		fields["visibility_mode"] = *req.VisibilityMode
	}
	if req.DeadlineAt != nil {
		fields["deadline_at"] = *req.DeadlineAt
	}
	if req.ExpectedVoters != nil {
		fields["expected_voters"] = *req.ExpectedVoters
	}
	if req.LockMode != nil {
		fields["lock_mode"] = *req.LockMode
	}

	if err := c.store.Patch(ctx, pollID, fields); err != nil {
		return nil, err
	}
	return c.store.Get(ctx, pollID)
}

// ShareRef derives the shareable student-view reference: poll id, the
// display version for cache busting, and a deterministic URL slug.
// Opaque to the tally engine.
func (c *Controller) ShareRef(p *models.Poll) models.ShareRefResponse {
	slug := auth.GenerateShareSlug(p.ID, c.slugSalt)
	return models.ShareRefResponse{
		PollID:         p.ID,
		DisplayVersion: p.DisplayVersion,
		Slug:           slug,
		URL:            fmt.Sprintf("%s/polls/%s?v=%d", c.baseURL, p.ID, p.DisplayVersion),
	}
}

// Subscribe attaches a change callback for the poll. Fires immediately
// with the current snapshot if the poll exists.
func (c *Controller) Subscribe(pollID string, onChange func(*models.Poll)) func() {
	return c.store.Subscribe(pollID, onChange)
}
