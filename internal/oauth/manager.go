package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"runlog/internal/config"
	"runlog/internal/database"
	"runlog/internal/strava"
)

// ErrInvalidState is returned when a callback carries an unknown or expired
// CSRF state.
var ErrInvalidState = errors.New("invalid or expired state")

// ErrExchangeFailed wraps token-exchange failures so the callback handler
// can pick the right landing page.
var ErrExchangeFailed = errors.New("token exchange failed")

// ErrStoreFailed wraps credential persistence failures.
var ErrStoreFailed = errors.New("failed to store credentials")

// Manager handles the OAuth 2.0 flow with Strava
type Manager struct {
	config *config.Config
	db     *database.DB
	client *strava.Client
	logger *slog.Logger
	states *stateStore // CSRF protection
}

// stateStore tracks valid OAuth states for CSRF protection
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewManager creates a new OAuth manager
func NewManager(cfg *config.Config, db *database.DB, client *strava.Client) *Manager {
	mgr := &Manager{
		config: cfg,
		db:     db,
		client: client,
		logger: slog.Default(),
		states: &stateStore{
			states: make(map[string]time.Time),
		},
	}

	// Background cleanup of expired states
	go mgr.cleanupStates()

	return mgr
}

// GenerateAuthURL generates a Strava authorization URL with CSRF protection
func (m *Manager) GenerateAuthURL() (string, string, error) {
	state, err := generateRandomState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	// States expire after 10 minutes
	m.states.mu.Lock()
	m.states.states[state] = time.Now().Add(10 * time.Minute)
	m.states.mu.Unlock()

	params := url.Values{
		"client_id":       {m.config.StravaClientID},
		"redirect_uri":    {m.config.StravaRedirectURI},
		"response_type":   {"code"},
		"scope":           {m.config.StravaScopes},
		"approval_prompt": {"auto"},
		"state":           {state},
	}

	authURL := fmt.Sprintf("%s?%s", m.config.StravaAuthorizeURL, params.Encode())

	return authURL, state, nil
}

// HandleCallback exchanges the authorization code and persists the credential
// record. Returns the athlete ID on success.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (int64, error) {
	if !m.validateState(state) {
		return 0, ErrInvalidState
	}

	tokenResp, err := m.client.ExchangeCode(ctx, code)
	if err != nil {
		m.logger.Error("failed to exchange code", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	if tokenResp.Athlete == nil {
		m.logger.Error("token response missing athlete")
		return 0, fmt.Errorf("%w: no athlete in response", ErrExchangeFailed)
	}

	athlete := tokenResp.Athlete
	creds := &database.Credentials{
		AthleteID:        athlete.ID,
		AthleteUsername:  athlete.Username,
		AthleteFirstname: athlete.Firstname,
		AthleteLastname:  athlete.Lastname,
		AccessToken:      tokenResp.AccessToken,
		RefreshToken:     tokenResp.RefreshToken,
		TokenType:        tokenResp.TokenType,
		Scope:            tokenResp.Scope,
		ExpiresAt:        time.Unix(tokenResp.ExpiresAt, 0).UTC().Format(time.RFC3339),
	}

	if err := m.db.UpsertCredentials(creds); err != nil {
		m.logger.Error("failed to store credentials", "error", err, "athlete_id", athlete.ID)
		return 0, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	m.logger.Info("stored strava credentials", "athlete_id", athlete.ID)

	return athlete.ID, nil
}

// validateState checks if a state is valid and removes it (one-time use)
func (m *Manager) validateState(state string) bool {
	m.states.mu.Lock()
	defer m.states.mu.Unlock()

	expiry, exists := m.states.states[state]
	if !exists {
		return false
	}

	delete(m.states.states, state)

	return !time.Now().After(expiry)
}

// cleanupStates removes expired states every minute
func (m *Manager) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.states.mu.Lock()
		now := time.Now()
		for state, expiry := range m.states.states {
			if now.After(expiry) {
				delete(m.states.states, state)
			}
		}
		m.states.mu.Unlock()
	}
}

// generateRandomState generates a cryptographically secure random state
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
