// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration via CLI flags with environment
variable fallbacks.

# Settings

  - PORT (-p): server port, default 3319
  - STORE_BACKEND (-s): memory (default), sqlite, postgres, or redis
  - DATABASE_URL (-d): required for the sqlite/postgres backends
  - REDIS_ADDR (-r): required for the redis backend
  - BASE_URL (--base-url): public base URL for share links
  - ADMIN_KEY_SALT (--admin-salt): required secret
  - SLUG_SALT (--slug-salt): required secret

CLI flags take precedence; secrets should come from the environment in
production.
*/
package cliparse
