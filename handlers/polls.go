// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/classpoll/auth"
	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/engine"
	"github.com/danielhkuo/classpoll/lifecycle"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/session"
	"github.com/danielhkuo/classpoll/store"
)

type PollHandler struct {
	ctrl *session.Controller
	cfg  cliparse.Config
}

func NewPollHandler(ctrl *session.Controller, cfg cliparse.Config) *PollHandler {
	return &PollHandler{ctrl: ctrl, cfg: cfg}
}

// rejectionStatus maps engine/store rejections to HTTP status codes.
// DuplicateVote is terminal (409, do not retry); StoreUnavailable is
// transient (503, retry is safe).
func rejectionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrAlreadyClosed):
		return http.StatusConflict, "Poll is closed"
	case errors.Is(err, engine.ErrDuplicateVote):
		return http.StatusConflict, "You have already voted in this poll"
	case errors.Is(err, engine.ErrNoSelection):
		return http.StatusBadRequest, "Select at least one option"
	case errors.Is(err, engine.ErrEmptyVoterKey):
		return http.StatusBadRequest, "Could not derive a voter identity"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Poll not found"
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, "Store unavailable, retry shortly"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeRejection(w http.ResponseWriter, op string, err error) {
	status, message := rejectionStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("operation failed", "op", op, "error", err)
	}
	middleware.ErrorResponse(w, status, message)
}

// requireAdmin validates the X-Admin-Key header for the poll.
func (h *PollHandler) requireAdmin(w http.ResponseWriter, r *http.Request, pollID string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(pollID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// CreatePoll handles POST /polls
// Get-or-create: a client-supplied poll_id returns the existing poll if
// one exists; omitting it mints a fresh poll.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && err != io.EOF {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, created, err := h.ctrl.GetOrCreate(r.Context(), req.PollID)
	if err != nil {
		writeRejection(w, "create poll", err)
		return
	}

	adminKey := auth.GenerateAdminKey(poll.ID, h.cfg.AdminKeySalt)

	slog.Info("poll ready", "poll_id", poll.ID, "created", created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.CreatePollResponse{
		PollID:   poll.ID,
		AdminKey: adminKey,
		Created:  created,
	})
}

// GetPollAdmin handles GET /polls/{id}/admin
// Full state including the ballot ledger; the admin console sees live
// counts even in hidden visibility mode.
func (h *PollHandler) GetPollAdmin(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "get poll admin", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AdminPollResponse{
		Poll:   poll,
		Closed: lifecycle.IsClosed(poll),
		Ledger: buildLedger(poll),
		Share:  h.ctrl.ShareRef(poll),
	})
}

// buildLedger flattens the ballot map into rows ordered by submission
// time for admin display.
func buildLedger(p *models.Poll) []models.LedgerEntry {
	entries := make([]models.LedgerEntry, 0, len(p.Ballots))
	for key, b := range p.Ballots {
		entries = append(entries, models.LedgerEntry{
			VoterKey:     key,
			Name:         b.Name,
			OptionIDs:    b.IDs,
			SubmittedAt:  b.At,
			SubmittedAgo: humanize.Time(b.At),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].VoterKey < entries[j].VoterKey
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	return entries
}

// UpdateConfig handles PATCH /polls/{id}/config
func (h *PollHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	var req models.ConfigPatchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateConfigPatch(req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	poll, err := h.ctrl.UpdateConfig(r.Context(), pollID, req)
	if err != nil {
		writeRejection(w, "update config", err)
		return
	}

	slog.Info("config updated", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, poll)
}

func validateConfigPatch(req models.ConfigPatchRequest) string {
	if req.VoteLimit != nil && (*req.VoteLimit < models.MinVoteLimit || *req.VoteLimit > models.MaxVoteLimit) {
		return "vote_limit must be 1 or 2"
	}
	if req.VisibilityMode != nil {
		switch *req.VisibilityMode {
		case models.VisibilityAlways, models.VisibilityHidden, models.VisibilityDeadline:
		default:
			return "visibility_mode must be always, hidden, or deadline"
		}
	}
	if req.LockMode != nil {
		switch *req.LockMode {
		case models.LockDevice, models.LockName:
		default:
			return "lock_mode must be device or name"
		}
	}
	if req.ExpectedVoters != nil && *req.ExpectedVoters < 0 {
		return "expected_voters must be non-negative"
	}
	return ""
}

// AddOption handles POST /polls/{id}/options
func (h *PollHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	var req models.AddOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && err != io.EOF {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	optionID, err := h.ctrl.AddOption(r.Context(), pollID, req.Label)
	if err != nil {
		writeRejection(w, "add option", err)
		return
	}

	slog.Info("option added", "poll_id", pollID, "option_id", optionID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddOptionResponse{
		OptionID: optionID,
	})
}

// RemoveOption handles DELETE /polls/{id}/options/{optionID}
// Purges the option from every ballot and recounts in one transaction.
func (h *PollHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	optionID := r.PathValue("optionID")
	if pollID == "" || optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and option_id are required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	poll, err := h.ctrl.RemoveOption(r.Context(), pollID, optionID)
	if err != nil {
		writeRejection(w, "remove option", err)
		return
	}

	slog.Info("option removed", "poll_id", pollID, "option_id", optionID)

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// RemoveBallot handles DELETE /polls/{id}/ballots/{voterKey}
func (h *PollHandler) RemoveBallot(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	voterKey := r.PathValue("voterKey")
	if pollID == "" || voterKey == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and voter_key are required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	poll, err := h.ctrl.RemoveBallot(r.Context(), pollID, voterKey)
	if err != nil {
		writeRejection(w, "remove ballot", err)
		return
	}

	slog.Info("ballot removed", "poll_id", pollID, "voter_key", voterKey)

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// ClosePoll handles POST /polls/{id}/close
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	h.setManualClosed(w, r, true)
}

// ReopenPoll handles POST /polls/{id}/reopen
// Clears only the manual override. A still-met expected_voters threshold
// keeps the poll closed until the admin raises it.
func (h *PollHandler) ReopenPoll(w http.ResponseWriter, r *http.Request) {
	h.setManualClosed(w, r, false)
}

func (h *PollHandler) setManualClosed(w http.ResponseWriter, r *http.Request, closed bool) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	var err error
	if closed {
		err = h.ctrl.Close(r.Context(), pollID)
	} else {
		err = h.ctrl.Reopen(r.Context(), pollID)
	}
	if err != nil {
		writeRejection(w, "set manual closed", err)
		return
	}

	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "set manual closed", err)
		return
	}

	slog.Info("manual close toggled", "poll_id", pollID, "manual_closed", closed, "effective_closed", lifecycle.IsClosed(poll))

	middleware.JSONResponse(w, http.StatusOK, map[string]any{
		"poll_id":       pollID,
		"manual_closed": closed,
		"closed":        lifecycle.IsClosed(poll),
	})
}

// Recount handles POST /polls/{id}/recount
// Admin recovery tool: recomputes every option count from the ledger.
func (h *PollHandler) Recount(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	poll, err := h.ctrl.Recount(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "recount", err)
		return
	}

	slog.Info("recount complete", "poll_id", pollID, "total_votes", poll.TotalVotes())

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// ResetPoll handles POST /polls/{id}/reset
// Destructive: replaces the aggregate with a fresh default poll keeping
// only the poll id. Intent confirmation is a UI concern.
func (h *PollHandler) ResetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}
	if !h.requireAdmin(w, r, pollID) {
		return
	}

	poll, err := h.ctrl.Reset(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "reset poll", err)
		return
	}

	slog.Info("poll reset", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, poll)
}
