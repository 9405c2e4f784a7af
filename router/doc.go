// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP route table using Go 1.22+ method
routing on the standard ServeMux.

	mux := router.NewRouter(ctrl, cfg)
	http.ListenAndServe(addr, middleware.CORS(mux))

Every route except the SSE stream is wrapped with request logging; the
stream skips it so a long-lived connection does not log a completion
line hours later.
*/
package router
