package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coda-server/api"
	"coda-server/auth"
	"coda-server/config"
	"coda-server/lobby"
	"coda-server/loghandler"
	"coda-server/storage"
	"coda-server/ws"
)

const shutdownTimeout = 5 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, loghandler.ParseLevel(cfg.LogLevel))))
	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	slog.Info("configuration", "tag", "main",
		"port", cfg.WSPort,
		"countdown", cfg.ReorderCountdownSec,
		"tick", cfg.ReorderTick(),
		"presence_debounce", cfg.PresenceDebounce(),
		"max_name", cfg.MaxNameLength)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("storage unavailable; results will not be saved", "tag", "main", "err", err)
	}
	if history != nil {
		defer history.Close()
	}

	var validator api.TokenValidator
	if cfg.AuthBaseURL != "" {
		v, err := auth.NewValidator(cfg.AuthBaseURL)
		if err != nil {
			slog.Error("auth setup failed", "tag", "main", "err", err)
			os.Exit(1)
		}
		validator = v
		slog.Info("results API requires a bearer token", "tag", "main", "base_url", cfg.AuthBaseURL)
	}

	l := lobby.New(cfg, history)
	go l.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: newMux(l, api.NewHandler(cfg, history, l.Online, validator)),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "tag", "main", "err", err)
		}
	}()

	slog.Info("Coda server listening", "tag", "main", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
	<-l.Done
}

// openHistory picks Postgres, then SQLite, then nothing. It never returns a
// non-nil interface wrapping a nil store.
func openHistory(ctx context.Context, cfg *config.Config) (storage.HistoryStore, error) {
	switch {
	case cfg.DatabaseURL != "":
		store, err := storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case cfg.SQLitePath != "":
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	slog.Info("no DATABASE_URL or SQLITE_PATH; round history disabled", "tag", "main")
	return nil, nil
}

func newMux(l *lobby.Lobby, h *api.Handler) *http.ServeMux {
	hub := ws.NewHub(l)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/api/recent", h.Recent)
	mux.HandleFunc("/api/history", h.History)
	return mux
}
