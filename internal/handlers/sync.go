package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"runlog/internal/config"
	"runlog/internal/database"
	"runlog/internal/strava"
	"runlog/internal/syncer"
)

// SyncHandler handles the admin-triggered Strava sync and connection test
type SyncHandler struct {
	db     *database.DB
	client *strava.Client
	syncer *syncer.Syncer
	config *config.Config
	logger *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(db *database.DB, client *strava.Client, s *syncer.Syncer, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		db:     db,
		client: client,
		syncer: s,
		config: cfg,
		logger: slog.Default(),
	}
}

// HandleSync runs one sync and reports counts. Upstream error bodies are
// logged but never exposed to the caller.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.config.AdminKey) {
		return
	}

	result, err := h.syncer.Run(r.Context())
	if err != nil {
		h.logger.Error("sync failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to sync Strava activities")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleConnectionTest verifies the stored credentials by fetching the
// authenticated athlete's profile
func (h *SyncHandler) HandleConnectionTest(w http.ResponseWriter, r *http.Request) {
	creds, err := h.db.GetCredentials()
	if err != nil {
		h.logger.Error("credentials load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Strava credentials missing or invalid")
		return
	}

	accessToken, err := h.syncer.ValidAccessToken(r.Context(), creds)
	if err != nil {
		h.logger.Error("access token error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to refresh Strava access token")
		return
	}

	athlete, err := h.client.GetAthlete(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("athlete fetch failed", "error", err)
		var httpErr *strava.HTTPError
		if errors.As(err, &httpErr) {
			writeError(w, http.StatusBadGateway, "Failed to fetch Strava athlete")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch Strava athlete")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"athlete": athlete})
}
