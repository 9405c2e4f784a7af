// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP cross-cutting helpers for the Classpoll
API: request logging, CORS, JSON encoding/decoding, and client IP
extraction.

Handlers wrap themselves at route registration:

	mux.HandleFunc("POST /polls", middleware.WithLogging(h.CreatePoll))

Responses go through JSONResponse/ErrorResponse so every error body has
the same shape.
*/
package middleware
