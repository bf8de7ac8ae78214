package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"coda-server/auth"
	"coda-server/config"
	"coda-server/storage"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (jwt.MapClaims, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	HistoryStore storage.HistoryStore
	// Online reports how many connections the lobby currently holds.
	Online func() int
	// Auth is nil when the results API is open.
	Auth TokenValidator
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, historyStore storage.HistoryStore, online func() int, validator TokenValidator) *Handler {
	return &Handler{
		Config:       cfg,
		HistoryStore: historyStore,
		Online:       online,
		Auth:         validator,
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// authorized reports whether the request may read results. Without a
// validator every request is allowed.
func (h *Handler) authorized(r *http.Request) bool {
	if h.Auth == nil {
		return true
	}
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return false
	}
	claims, err := h.Auth.Validate(token)
	if err != nil {
		slog.Debug("rejected bearer token", "tag", "api", "err", err)
		return false
	}
	slog.Debug("authorized request", "tag", "api", "user", auth.UserIDFromClaims(claims), "path", r.URL.Path)
	return true
}

// begin handles CORS, method and auth checks shared by the read endpoints.
// It reports false when the response has already been written.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, needAuth bool) bool {
	if CORS(w, r) {
		return false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if needAuth && !h.authorized(r) {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return false
	}
	return true
}

// Health reports liveness and the number of connected participants.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.begin(w, r, false) {
		return
	}
	online := 0
	if h.Online != nil {
		online = h.Online()
	}
	writeJSON(w, map[string]any{"status": "ok", "online": online})
}

// Recent returns the latest finished rounds.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if !h.begin(w, r, true) {
		return
	}
	list := []storage.GameRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListRecent(r.Context(), parseLimit(r))
		if err != nil {
			slog.Error("ListRecent", "tag", "api", "err", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

// History returns the finished rounds of one display name.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if !h.begin(w, r, true) {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	list := []storage.GameRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListByPlayerName(r.Context(), name, parseLimit(r))
		if err != nil {
			slog.Error("ListByPlayerName", "tag", "api", "name", name, "err", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

func parseLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return storage.ClampLimit(limit)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "err", err)
	}
}
