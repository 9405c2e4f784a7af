// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/handlers"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/session"
)

func NewRouter(ctrl *session.Controller, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(ctrl, cfg)
	votingHandler := handlers.NewVotingHandler(ctrl, cfg)
	resultsHandler := handlers.NewResultsHandler(ctrl, cfg)
	exportHandler := handlers.NewExportHandler(ctrl, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management (admin operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls/{id}/admin", middleware.WithLogging(pollHandler.GetPollAdmin))
	mux.HandleFunc("PATCH /polls/{id}/config", middleware.WithLogging(pollHandler.UpdateConfig))
	mux.HandleFunc("POST /polls/{id}/options", middleware.WithLogging(pollHandler.AddOption))
	mux.HandleFunc("DELETE /polls/{id}/options/{optionID}", middleware.WithLogging(pollHandler.RemoveOption))
	mux.HandleFunc("DELETE /polls/{id}/ballots/{voterKey}", middleware.WithLogging(pollHandler.RemoveBallot))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(pollHandler.ClosePoll))
	mux.HandleFunc("POST /polls/{id}/reopen", middleware.WithLogging(pollHandler.ReopenPoll))
	mux.HandleFunc("POST /polls/{id}/recount", middleware.WithLogging(pollHandler.Recount))
	mux.HandleFunc("POST /polls/{id}/reset", middleware.WithLogging(pollHandler.ResetPoll))
	mux.HandleFunc("GET /polls/{id}/export", middleware.WithLogging(exportHandler.Export))

	// Voting operations (public)
	mux.HandleFunc("POST /polls/{id}/devices/register", middleware.WithLogging(votingHandler.RegisterDevice))
	mux.HandleFunc("POST /polls/{id}/ballots", middleware.WithLogging(votingHandler.SubmitBallot))

	// Poll views (public, visibility-gated)
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(resultsHandler.GetPoll))
	mux.HandleFunc("GET /polls/{id}/share", middleware.WithLogging(resultsHandler.GetShareRef))
	mux.HandleFunc("GET /polls/{id}/events", resultsHandler.StreamEvents)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("classpoll API v1"))
	})

	return mux
}
