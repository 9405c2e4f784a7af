// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Classpoll API server.

Classpoll is a classroom polling service: an administrator configures a
poll (title, options, visibility rules, vote limits, closing
conditions), shares a link with students, and students submit ballots
that are tallied and streamed back in near-real-time.

# Starting the Server

The server runs against an in-memory store by default:

	ADMIN_KEY_SALT=... SLUG_SALT=... go run .

Or against a durable backend:

	go run . -s postgres -d "postgres://..."
	go run . -s sqlite -d "file:classpoll.db"
	go run . -s redis -r "localhost:6379"

# Configuration

Required settings:

  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - STORE_BACKEND (-s): memory, sqlite, postgres, or redis
  - DATABASE_URL (-d) / REDIS_ADDR (-r): backend connection
  - BASE_URL (--base-url): public base URL for share links

# Architecture

The server uses a controller-based architecture with dependency
injection:

  - engine: pure tally transitions over the poll aggregate
  - lifecycle: open/closed and result-visibility derivations
  - identity: VoterKey resolution and device tokens
  - store: PollStore interface with memory/SQL/Redis backends
  - session: the one component that talks to the store
  - handlers: HTTP request handlers (polls, voting, results, export)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: the poll aggregate and request/response types
  - auth: admin key generation and validation
  - db: schema creation for the SQL backends
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
