package cliparse

import (
	"strings"
	"testing"
)

func secretArgs(extra ...string) []string {
	return append(extra, "--admin-salt", "test-admin", "--slug-salt", "test-slug")
}

func TestParseFlagsDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("BASE_URL", "")

	cfg, err := ParseFlags(secretArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 3319 {
		t.Errorf("default port = %d", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("default backend = %q", cfg.StoreBackend)
	}
	if cfg.BaseURL != "http://localhost:3319" {
		t.Errorf("default base url = %q", cfg.BaseURL)
	}
}

func TestParseFlagsBackends(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "memory backend needs nothing",
			args: secretArgs("-s", "memory"),
		},
		{
			name: "sqlite backend with database url",
			args: secretArgs("-s", "sqlite", "-d", "file:classpoll.db"),
			check: func(t *testing.T, cfg Config) {
				if cfg.DatabaseURL != "file:classpoll.db" {
					t.Errorf("database url = %q", cfg.DatabaseURL)
				}
			},
		},
		{
			name:    "sqlite backend without database url",
			args:    secretArgs("-s", "sqlite"),
			wantErr: "database URL required",
		},
		{
			name: "postgres backend with database url",
			args: secretArgs("-s", "postgres", "-d", "postgres://localhost/classpoll"),
		},
		{
			name:    "postgres backend without database url",
			args:    secretArgs("-s", "postgres"),
			wantErr: "database URL required",
		},
		{
			name: "redis backend with address",
			args: secretArgs("-s", "redis", "-r", "localhost:6379"),
			check: func(t *testing.T, cfg Config) {
				if cfg.RedisAddr != "localhost:6379" {
					t.Errorf("redis addr = %q", cfg.RedisAddr)
				}
			},
		},
		{
			name:    "redis backend without address",
			args:    secretArgs("-s", "redis"),
			wantErr: "redis address required",
		},
		{
			name:    "unknown backend",
			args:    secretArgs("-s", "etcd"),
			wantErr: "unknown store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseFlagsSecretsRequired(t *testing.T) {
	t.Setenv("ADMIN_KEY_SALT", "")
	t.Setenv("SLUG_SALT", "")

	if _, err := ParseFlags([]string{"--slug-salt", "x"}); err == nil || !strings.Contains(err.Error(), "ADMIN_KEY_SALT") {
		t.Errorf("expected admin salt error, got %v", err)
	}
	if _, err := ParseFlags([]string{"--admin-salt", "x"}); err == nil || !strings.Contains(err.Error(), "SLUG_SALT") {
		t.Errorf("expected slug salt error, got %v", err)
	}
}

func TestParseFlagsEnvFallbacks(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("BASE_URL", "https://poll.example.edu")
	t.Setenv("ADMIN_KEY_SALT", "env-admin")
	t.Setenv("SLUG_SALT", "env-slug")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8088 || cfg.StoreBackend != BackendRedis || cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("env fallbacks not applied: %+v", cfg)
	}
	if cfg.BaseURL != "https://poll.example.edu" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.AdminKeySalt != "env-admin" || cfg.SlugSalt != "env-slug" {
		t.Error("secret fallbacks not applied")
	}

	t.Run("flags win over env", func(t *testing.T) {
		cfg, err := ParseFlags([]string{"-p", "9000", "-s", "memory", "--admin-salt", "flag-admin", "--slug-salt", "flag-slug"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != 9000 || cfg.StoreBackend != BackendMemory || cfg.AdminKeySalt != "flag-admin" {
			t.Errorf("flags did not take precedence: %+v", cfg)
		}
	})
}

func TestParseFlagsInvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ADMIN_KEY_SALT", "x")
	t.Setenv("SLUG_SALT", "x")

	if _, err := ParseFlags(nil); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Errorf("expected PORT error, got %v", err)
	}
}
