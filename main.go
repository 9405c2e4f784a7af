package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/db"
	"github.com/danielhkuo/classpoll/identity"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/router"
	"github.com/danielhkuo/classpoll/session"
	"github.com/danielhkuo/classpoll/store"
)

func main() {
	// Load .env if present; env vars win over file values
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the poll store backend
	pollStore, cleanup, err := openStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.Info("Poll store ready", "backend", cfg.StoreBackend)

	// Wire the session controller
	ctrl := session.NewController(pollStore, identity.RandomTokenProvider{}, cfg.BaseURL, cfg.SlugSalt)

	// Create router
	mux := router.NewRouter(ctrl, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openStore builds the configured PollStore and a cleanup function.
func openStore(cfg cliparse.Config) (store.PollStore, func(), error) {
	switch cfg.StoreBackend {
	case cliparse.BackendMemory:
		return store.NewMemory(), func() {}, nil

	case cliparse.BackendSQLite, cliparse.BackendPostgres:
		driver := "sqlite"
		if cfg.StoreBackend == cliparse.BackendPostgres {
			driver = "postgres"
		}
		conn, err := sql.Open(driver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, nil, err
		}
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store.NewSQL(conn), func() { conn.Close() }, nil

	case cliparse.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRedis(client), func() { client.Close() }, nil
	}
	// cliparse already rejected unknown backends
	return nil, nil, nil
}
