// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/lifecycle"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/session"
)

type VotingHandler struct {
	ctrl *session.Controller
	cfg  cliparse.Config
}

func NewVotingHandler(ctrl *session.Controller, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{ctrl: ctrl, cfg: cfg}
}

// RegisterDevice handles POST /polls/{id}/devices/register
// Issues a per-poll device token. The client persists it locally and
// replays it in X-Device-Token; tokens are scoped per poll, so one
// device voting in two polls holds independent tokens.
func (h *VotingHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	// Only issue tokens for polls that exist.
	if _, err := h.ctrl.Get(r.Context(), pollID); err != nil {
		writeRejection(w, "register device", err)
		return
	}

	token, err := h.ctrl.DeviceToken(pollID)
	if err != nil {
		slog.Error("failed to issue device token", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	slog.Info("device registered", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterDeviceResponse{
		DeviceToken: token,
	})
}

// SubmitBallot handles POST /polls/{id}/ballots
// The duplicate-vote check runs inside the store transaction; retrying
// an identical submission is safe and yields a 409, never a double count.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Resolution needs the poll's lock policy; the transaction below
	// re-reads state, so a stale read here can only affect which key is
	// derived, never the at-most-once guarantee for that key.
	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "submit ballot", err)
		return
	}

	deviceToken := r.Header.Get("X-Device-Token")
	voterKey := h.ctrl.ResolveVoterKey(poll, req.Name, deviceToken)
	if voterKey == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Device-Token header required")
		return
	}

	updated, err := h.ctrl.SubmitBallot(r.Context(), pollID, voterKey, req.OptionIDs, req.Name)
	if err != nil {
		writeRejection(w, "submit ballot", err)
		return
	}

	slog.Info("ballot submitted", "poll_id", pollID, "ballots", updated.ParticipantCount())

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		VoterKey:    voterKey,
		BallotCount: updated.ParticipantCount(),
		Closed:      lifecycle.IsClosed(updated),
	})
}
