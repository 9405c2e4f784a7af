// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/lifecycle"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/session"
)

type ResultsHandler struct {
	ctrl *session.Controller
	cfg  cliparse.Config
}

func NewResultsHandler(ctrl *session.Controller, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{ctrl: ctrl, cfg: cfg}
}

// buildView projects the poll for an audience at an instant. Per-option
// counts and the vote total are stripped when results are not visible;
// the participant count is always shown (students can see how many have
// voted without seeing the distribution).
func buildView(p *models.Poll, audience string, now time.Time) models.PollView {
	visible := lifecycle.ResultsVisible(p, audience, now)

	options := make([]models.OptionView, len(p.Options))
	for i, opt := range p.Options {
		options[i] = models.OptionView{ID: opt.ID, Label: opt.Label}
		if visible {
			votes := opt.Votes
			options[i].Votes = &votes
		}
	}

	view := models.PollView{
		PollID:         p.ID,
		Title:          p.Title,
		Description:    p.Description,
		VoteLimit:      p.VoteLimit,
		Anonymous:      p.Anonymous,
		VisibilityMode: p.VisibilityMode,
		DeadlineAt:     p.DeadlineAt,
		Closed:         lifecycle.IsClosed(p),
		ResultsVisible: visible,
		Options:        options,
		BallotCount:    p.ParticipantCount(),
	}
	if visible {
		total := p.TotalVotes()
		view.TotalVotes = &total
	}
	return view
}

// GetPoll handles GET /polls/{id}
// Student view: configuration plus results when visibility allows.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "get poll", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, buildView(poll, models.AudienceStudent, time.Now()))
}

// GetShareRef handles GET /polls/{id}/share
// The opaque reference embedded in a link or QR code: poll id plus a
// display version that invalidates cached renders.
func (h *ResultsHandler) GetShareRef(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "get share ref", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.ctrl.ShareRef(poll))
}

// StreamEvents handles GET /polls/{id}/events
// Server-sent events: one JSON student view per committed change, fed by
// the controller's subscription mirror.
func (h *ResultsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	if _, err := h.ctrl.Get(r.Context(), pollID); err != nil {
		writeRejection(w, "stream events", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	watch := h.ctrl.Watch(pollID, 8)
	defer watch.Detach()

	slog.Info("event stream attached", "poll_id", pollID)

	for {
		select {
		case <-r.Context().Done():
			slog.Info("event stream detached", "poll_id", pollID)
			return
		case poll := <-watch.Updates():
			view := buildView(poll, models.AudienceStudent, time.Now())
			payload, err := json.Marshal(view)
			if err != nil {
				slog.Error("failed to encode event", "error", err, "poll_id", pollID)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
