// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/classpoll/auth"
	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/identity"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/session"
	"github.com/danielhkuo/classpoll/store"
)

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3319,
		StoreBackend: cliparse.BackendMemory,
		BaseURL:      "http://localhost:3319",
		AdminKeySalt: "test-admin-salt",
		SlugSalt:     "test-slug-salt",
	}
}

// NewTestController wires a controller onto a fresh in-memory store.
func NewTestController(t *testing.T) (*session.Controller, *store.Memory, cliparse.Config) {
	t.Helper()

	cfg := GetTestConfig()
	st := store.NewMemory()
	ctrl := session.NewController(st, identity.RandomTokenProvider{}, cfg.BaseURL, cfg.SlugSalt)
	return ctrl, st, cfg
}

// NewPoll builds a poll fixture with options opt1..optN carrying the
// given labels. Vote limit 1, always-visible, open.
func NewPoll(id string, labels ...string) *models.Poll {
	options := make([]models.Option, len(labels))
	for i, label := range labels {
		options[i] = models.Option{ID: fmt.Sprintf("opt%d", i+1), Label: label}
	}
	return models.Normalize(&models.Poll{
		ID:             id,
		Title:          "Test Poll",
		VoteLimit:      1,
		Options:        options,
		Ballots:        map[string]models.Ballot{},
		VisibilityMode: models.VisibilityAlways,
		LockMode:       models.LockDevice,
		UpdatedAt:      time.Now(),
	})
}

// SeedPoll writes a poll fixture straight into the store.
func SeedPoll(t *testing.T, st store.PollStore, p *models.Poll) {
	t.Helper()

	if err := st.Set(context.Background(), p.ID, p); err != nil {
		t.Fatalf("Failed to seed poll: %v", err)
	}
}

// SubmitTestBallot records a ballot for a voter directly through the
// store, keeping the denormalized counts consistent.
func SubmitTestBallot(t *testing.T, st store.PollStore, pollID, voterKey string, optionIDs ...string) {
	t.Helper()

	_, err := st.Transact(context.Background(), pollID, func(current *models.Poll) (*models.Poll, error) {
		if current == nil {
			return nil, store.ErrNotFound
		}
		next := current.Clone()
		next.Ballots[voterKey] = models.Ballot{IDs: optionIDs, At: time.Now()}
		for _, id := range optionIDs {
			if opt := next.OptionByID(id); opt != nil {
				opt.Votes++
			}
		}
		return next, nil
	})
	if err != nil {
		t.Fatalf("Failed to submit test ballot: %v", err)
	}
}

// AdminKey derives the admin key for a poll under the test config.
func AdminKey(pollID string) string {
	return auth.GenerateAdminKey(pollID, GetTestConfig().AdminKeySalt)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
