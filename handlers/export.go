// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/classpoll/auth"
	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/lifecycle"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/session"
)

type ExportHandler struct {
	ctrl *session.Controller
	cfg  cliparse.Config
}

func NewExportHandler(ctrl *session.Controller, cfg cliparse.Config) *ExportHandler {
	return &ExportHandler{ctrl: ctrl, cfg: cfg}
}

// Export handles GET /polls/{id}/export?format=json|csv
// Serializes the read accessors: JSON is the full admin state; CSV is
// the option tallies followed by the ballot ledger.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(pollID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	poll, err := h.ctrl.Get(r.Context(), pollID)
	if err != nil {
		writeRejection(w, "export poll", err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		h.exportJSON(w, poll)
	case "csv":
		h.exportCSV(w, poll)
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be json or csv")
	}
}

func (h *ExportHandler) exportJSON(w http.ResponseWriter, poll *models.Poll) {
	middleware.JSONResponse(w, http.StatusOK, models.AdminPollResponse{
		Poll:   poll,
		Closed: lifecycle.IsClosed(poll),
		Ledger: buildLedger(poll),
		Share:  h.ctrl.ShareRef(poll),
	})
}

func (h *ExportHandler) exportCSV(w http.ResponseWriter, poll *models.Poll) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="poll-`+poll.ID+`.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)

	cw.Write([]string{"option_id", "label", "votes"})
	for _, opt := range poll.Options {
		cw.Write([]string{opt.ID, opt.Label, strconv.Itoa(opt.Votes)})
	}
	cw.Write([]string{"total", "", strconv.Itoa(poll.TotalVotes())})

	cw.Write(nil) // blank separator row

	cw.Write([]string{"voter_key", "name", "submitted_at", "selected_option_ids"})
	for _, entry := range buildLedger(poll) {
		name := ""
		if entry.Name != nil {
			name = *entry.Name
		}
		cw.Write([]string{
			entry.VoterKey,
			name,
			entry.SubmittedAt.Format(time.RFC3339),
			strings.Join(entry.OptionIDs, "|"),
		})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("failed to write CSV export", "error", err, "poll_id", poll.ID)
	}
}
