package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"runlog/internal/config"
)

func testClient(apiURL, tokenURL string) *Client {
	return NewClient(&config.Config{
		StravaClientID:     "test_client_id",
		StravaClientSecret: "test_client_secret",
		StravaAPIURL:       apiURL,
		StravaTokenURL:     tokenURL,
	})
}

func TestExchangeCode(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		if r.FormValue("code") != "test_code" {
			http.Error(w, "Invalid code", http.StatusBadRequest)
			return
		}
		if r.FormValue("client_id") != "test_client_id" {
			http.Error(w, "Invalid client_id", http.StatusBadRequest)
			return
		}
		if r.FormValue("client_secret") != "test_client_secret" {
			http.Error(w, "Invalid client_secret", http.StatusBadRequest)
			return
		}
		if r.FormValue("grant_type") != "authorization_code" {
			http.Error(w, "Invalid grant_type", http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "test_access_token",
			"refresh_token": "test_refresh_token",
			"token_type":    "Bearer",
			"expires_at":    1767225600,
			"scope":         "activity:read_all",
			"athlete": map[string]any{
				"id":       12345,
				"username": "runner",
			},
		})
	}))
	defer tokenServer.Close()

	client := testClient("", tokenServer.URL)

	resp, err := client.ExchangeCode(context.Background(), "test_code")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	if resp.AccessToken != "test_access_token" {
		t.Errorf("Expected access token 'test_access_token', got %s", resp.AccessToken)
	}
	if resp.RefreshToken != "test_refresh_token" {
		t.Errorf("Expected refresh token 'test_refresh_token', got %s", resp.RefreshToken)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("Expected token type 'Bearer', got %s", resp.TokenType)
	}
	if resp.ExpiresAt != 1767225600 {
		t.Errorf("Expected expires_at 1767225600, got %d", resp.ExpiresAt)
	}
	if resp.Athlete == nil || resp.Athlete.ID != 12345 {
		t.Errorf("Expected athlete id 12345, got %+v", resp.Athlete)
	}
}

func TestExchangeCodeFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	client := testClient("", tokenServer.URL)

	_, err := client.ExchangeCode(context.Background(), "bad_code")
	if err == nil {
		t.Fatal("Expected error for rejected exchange")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", httpErr.StatusCode)
	}
}

func TestRefreshToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		if r.FormValue("grant_type") != "refresh_token" {
			http.Error(w, "Invalid grant_type", http.StatusBadRequest)
			return
		}
		if r.FormValue("refresh_token") != "old_refresh" {
			http.Error(w, "Invalid refresh_token", http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new_access",
			"refresh_token": "new_refresh",
			"token_type":    "Bearer",
			"expires_at":    1767225600,
		})
	}))
	defer tokenServer.Close()

	client := testClient("", tokenServer.URL)

	resp, err := client.RefreshToken(context.Background(), "old_refresh")
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}

	if resp.AccessToken != "new_access" {
		t.Errorf("Expected access token 'new_access', got %s", resp.AccessToken)
	}
	if resp.RefreshToken != "new_refresh" {
		t.Errorf("Expected rotated refresh token 'new_refresh', got %s", resp.RefreshToken)
	}
	if resp.Athlete != nil {
		t.Errorf("Expected no athlete on refresh, got %+v", resp.Athlete)
	}
}

func TestListActivities(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_token" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("per_page") != "50" {
			t.Errorf("Expected per_page=50, got %s", r.URL.Query().Get("per_page"))
		}

		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":                   101,
				"name":                 "Morning Run",
				"start_date":           "2026-04-12T09:30:00Z",
				"distance":             10012.3,
				"moving_time":          3000,
				"total_elevation_gain": 120.7,
				"average_heartrate":    151.2,
				"type":                 "Run",
				"sport_type":           "Run",
			},
			{
				"id":          102,
				"name":        "Evening Run",
				"start_date":  "2026-04-12T19:00:00Z",
				"distance":    5000,
				"moving_time": 1500,
			},
		})
	}))
	defer apiServer.Close()

	client := testClient(apiServer.URL, "")

	activities, err := client.ListActivities(context.Background(), "test_token", 50)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}

	if len(activities) != 2 {
		t.Fatalf("Expected 2 activities, got %d", len(activities))
	}
	if activities[0].ID != 101 {
		t.Errorf("Expected first activity id 101, got %d", activities[0].ID)
	}
	if activities[0].AverageHeartrate == nil || *activities[0].AverageHeartrate != 151.2 {
		t.Errorf("Expected average heartrate 151.2, got %v", activities[0].AverageHeartrate)
	}
	if activities[1].AverageHeartrate != nil {
		t.Errorf("Expected no heartrate on second activity, got %v", *activities[1].AverageHeartrate)
	}
	if activities[1].SportType != nil {
		t.Errorf("Expected no sport_type on second activity, got %v", *activities[1].SportType)
	}
}

func TestListActivitiesUnauthorized(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer apiServer.Close()

	client := testClient(apiServer.URL, "")

	_, err := client.ListActivities(context.Background(), "expired_token", 50)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Body, "Authorization Error") {
		t.Errorf("Expected upstream body preserved, got %s", httpErr.Body)
	}
}

func TestGetActivityDetail(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/activities/101" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("include_all_efforts") != "false" {
			t.Errorf("Expected include_all_efforts=false")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":          101,
			"description": "Negative splits today",
		})
	}))
	defer apiServer.Close()

	client := testClient(apiServer.URL, "")

	detail, err := client.GetActivityDetail(context.Background(), "test_token", 101)
	if err != nil {
		t.Fatalf("GetActivityDetail failed: %v", err)
	}
	if detail.Description == nil || *detail.Description != "Negative splits today" {
		t.Errorf("Expected description, got %v", detail.Description)
	}
}

func TestGetAthlete(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 12345, "username": "runner"})
	}))
	defer apiServer.Close()

	client := testClient(apiServer.URL, "")

	raw, err := client.GetAthlete(context.Background(), "test_token")
	if err != nil {
		t.Fatalf("GetAthlete failed: %v", err)
	}

	var athlete struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &athlete); err != nil {
		t.Fatalf("Failed to unmarshal athlete: %v", err)
	}
	if athlete.ID != 12345 {
		t.Errorf("Expected athlete id 12345, got %d", athlete.ID)
	}
}
