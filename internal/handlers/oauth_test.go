package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"runlog/internal/config"
	"runlog/internal/database"
	"runlog/internal/oauth"
	"runlog/internal/strava"
)

func newOAuthHandler(t *testing.T, tokenURL string) (*OAuthHandler, *oauth.Manager, *database.DB) {
	t.Helper()

	db := setupHandlerDB(t)
	cfg := &config.Config{
		StravaClientID:     "test_client_id",
		StravaClientSecret: "test_client_secret",
		StravaRedirectURI:  "http://localhost:4200/api/strava/callback",
		StravaScopes:       "read,activity:read_all",
		StravaAuthorizeURL: "https://www.strava.com/oauth/authorize",
		StravaTokenURL:     tokenURL,
	}
	client := strava.NewClient(cfg)
	manager := oauth.NewManager(cfg, db, client)

	return NewOAuthHandler(manager, cfg), manager, db
}

func stravaTokenStub(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		if r.FormValue("code") != "good_code" {
			http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "test_access",
			"refresh_token": "test_refresh",
			"token_type":    "Bearer",
			"expires_at":    1767225600,
			"athlete":       map[string]any{"id": 12345, "username": "runner"},
		})
	}))
}

func TestHandleAuthorizeRedirects(t *testing.T) {
	h, _, _ := newOAuthHandler(t, "")

	rec := httptest.NewRecorder()
	h.HandleAuthorize(rec, httptest.NewRequest(http.MethodGet, "/api/strava/authorize", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Failed to parse Location header: %v", err)
	}
	if location.Host != "www.strava.com" {
		t.Errorf("Expected redirect to strava, got %s", location.Host)
	}
	if location.Query().Get("state") == "" {
		t.Error("Expected state parameter in redirect")
	}
}

func TestHandleCallbackConnected(t *testing.T) {
	tokenServer := stravaTokenStub(t)
	defer tokenServer.Close()

	h, manager, db := newOAuthHandler(t, tokenServer.URL)

	_, state, err := manager.GenerateAuthURL()
	if err != nil {
		t.Fatalf("GenerateAuthURL failed: %v", err)
	}

	rec := httptest.NewRecorder()
	target := "/api/strava/callback?code=good_code&state=" + url.QueryEscape(state)
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/?strava=connected" {
		t.Errorf("Expected connected landing, got %s", got)
	}

	if _, err := db.GetCredentials(); err != nil {
		t.Errorf("Expected credentials stored after callback: %v", err)
	}
}

func TestHandleCallbackDenied(t *testing.T) {
	h, _, _ := newOAuthHandler(t, "")

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/api/strava/callback?error=access_denied", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/?strava=error" {
		t.Errorf("Expected error landing, got %s", got)
	}
}

func TestHandleCallbackMissingCode(t *testing.T) {
	h, _, _ := newOAuthHandler(t, "")

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/api/strava/callback", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestHandleCallbackInvalidState(t *testing.T) {
	tokenServer := stravaTokenStub(t)
	defer tokenServer.Close()

	h, _, _ := newOAuthHandler(t, tokenServer.URL)

	rec := httptest.NewRecorder()
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, "/api/strava/callback?code=good_code&state=forged", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/?strava=error" {
		t.Errorf("Expected error landing for forged state, got %s", got)
	}
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	tokenServer := stravaTokenStub(t)
	defer tokenServer.Close()

	h, manager, _ := newOAuthHandler(t, tokenServer.URL)

	_, state, err := manager.GenerateAuthURL()
	if err != nil {
		t.Fatalf("GenerateAuthURL failed: %v", err)
	}

	rec := httptest.NewRecorder()
	target := "/api/strava/callback?code=rejected_code&state=" + url.QueryEscape(state)
	h.HandleCallback(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/?strava=token_error" {
		t.Errorf("Expected token_error landing, got %s", got)
	}
}
