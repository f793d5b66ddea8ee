package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"runlog/internal/config"
	"runlog/internal/oauth"
)

// OAuthHandler handles the Strava authorization flow endpoints
type OAuthHandler struct {
	manager *oauth.Manager
	config  *config.Config
	logger  *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(manager *oauth.Manager, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{
		manager: manager,
		config:  cfg,
		logger:  slog.Default(),
	}
}

// HandleAuthorize redirects the user to Strava's authorization page
func (h *OAuthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := h.manager.GenerateAuthURL()
	if err != nil {
		h.logger.Error("failed to generate auth URL", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start authorization")
		return
	}

	h.logger.Info("starting strava authorization", "state", state)

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback processes the OAuth callback from Strava. The user always
// lands back on the site root with a status query parameter; exchange output
// is never rendered directly.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errorParam := query.Get("error"); errorParam != "" {
		h.logger.Warn("strava authorization denied", "error", errorParam)
		http.Redirect(w, r, "/?strava=error", http.StatusTemporaryRedirect)
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	athleteID, err := h.manager.HandleCallback(r.Context(), code, query.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			h.logger.Warn("callback with invalid state")
			http.Redirect(w, r, "/?strava=error", http.StatusTemporaryRedirect)
		case errors.Is(err, oauth.ErrStoreFailed):
			http.Redirect(w, r, "/?strava=store_error", http.StatusTemporaryRedirect)
		default:
			http.Redirect(w, r, "/?strava=token_error", http.StatusTemporaryRedirect)
		}
		return
	}

	h.logger.Info("strava account connected", "athlete_id", athleteID)

	http.Redirect(w, r, "/?strava=connected", http.StatusTemporaryRedirect)
}
