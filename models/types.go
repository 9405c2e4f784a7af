// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Visibility modes govern whether students may see computed results.
const (
	VisibilityAlways   = "always"
	VisibilityHidden   = "hidden"
	VisibilityDeadline = "deadline"
)

// Lock modes select how the de-duplication VoterKey is derived.
const (
	LockDevice = "device"
	LockName   = "name"
)

// Audiences for result-visibility decisions.
const (
	AudienceAdmin   = "admin"
	AudienceStudent = "student"
)

// Vote limit bounds: each ballot selects 1 or 2 options.
const (
	MinVoteLimit = 1
	MaxVoteLimit = 2
)

const DefaultTitle = "New Poll"

// Request types

type CreatePollRequest struct {
	PollID string `json:"poll_id,omitempty"`
}

// ConfigPatchRequest carries admin configuration changes. Nil fields are
// left untouched; the patch is last-write-wins at the store level.
type ConfigPatchRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	VoteLimit      *int       `json:"vote_limit,omitempty"`
	Anonymous      *bool      `json:"anonymous,omitempty"`
	VisibilityMode *string    `json:"visibility_mode,omitempty"`
	DeadlineAt     *time.Time `json:"deadline_at,omitempty"`
	ExpectedVoters *int       `json:"expected_voters,omitempty"`
	LockMode       *string    `json:"lock_mode,omitempty"`
}

type AddOptionRequest struct {
	Label string `json:"label"`
}

type SubmitBallotRequest struct {
	OptionIDs []string `json:"option_ids"`
	Name      string   `json:"name,omitempty"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
	Created  bool   `json:"created"`
}

type AddOptionResponse struct {
	OptionID string `json:"option_id"`
}

type SubmitBallotResponse struct {
	VoterKey    string `json:"voter_key"`
	BallotCount int    `json:"ballot_count"`
	Closed      bool   `json:"closed"`
}

type RegisterDeviceResponse struct {
	DeviceToken string `json:"device_token"`
}

type ShareRefResponse struct {
	PollID         string `json:"poll_id"`
	DisplayVersion int64  `json:"display_version"`
	Slug           string `json:"slug"`
	URL            string `json:"url"`
}

// OptionView is an option with its count; Votes is omitted when results
// are hidden from the requesting audience.
type OptionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes *int   `json:"votes,omitempty"`
}

type PollView struct {
	PollID         string       `json:"poll_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	VoteLimit      int          `json:"vote_limit"`
	Anonymous      bool         `json:"anonymous"`
	VisibilityMode string       `json:"visibility_mode"`
	DeadlineAt     *time.Time   `json:"deadline_at,omitempty"`
	Closed         bool         `json:"closed"`
	ResultsVisible bool         `json:"results_visible"`
	Options        []OptionView `json:"options"`
	BallotCount    int          `json:"ballot_count"`
	TotalVotes     *int         `json:"total_votes,omitempty"`
}

// LedgerEntry is one row of the admin ballot ledger.
type LedgerEntry struct {
	VoterKey     string    `json:"voter_key"`
	Name         *string   `json:"name,omitempty"`
	OptionIDs    []string  `json:"option_ids"`
	SubmittedAt  time.Time `json:"submitted_at"`
	SubmittedAgo string    `json:"submitted_ago"`
}

type AdminPollResponse struct {
	Poll   *Poll            `json:"poll"`
	Closed bool             `json:"closed"`
	Ledger []LedgerEntry    `json:"ledger"`
	Share  ShareRefResponse `json:"share"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

// Ballot is one voter's recorded selection. Immutable after creation
// except for full removal.
type Ballot struct {
	IDs  []string  `json:"ids"`
	At   time.Time `json:"at"`
	Name *string   `json:"name,omitempty"`
}

// Poll is the root aggregate, persisted as a single document in the store.
// Options[i].Votes is denormalized: it must always equal the number of
// ballots whose IDs contain that option's ID.
type Poll struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	VoteLimit      int               `json:"vote_limit"`
	Options        []Option          `json:"options"`
	Ballots        map[string]Ballot `json:"ballots"`
	Anonymous      bool              `json:"anonymous"`
	VisibilityMode string            `json:"visibility_mode"`
	DeadlineAt     *time.Time        `json:"deadline_at,omitempty"`
	ExpectedVoters int               `json:"expected_voters"`
	ManualClosed   bool              `json:"manual_closed"`
	LockMode       string            `json:"lock_mode"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DisplayVersion int64             `json:"display_version"`
}
