package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"runlog/internal/config"
	"runlog/internal/database"
)

// Unit conversions for manually entered activities
const (
	milesToMeters = 1609.34
	feetToMeters  = 0.3048
)

// publicListLimit caps the public activity feed
const publicListLimit = 100

// ActivitiesHandler handles the public activity feed and the admin CRUD
// surface for manually entered activities
type ActivitiesHandler struct {
	db     *database.DB
	config *config.Config
	logger *slog.Logger
}

// NewActivitiesHandler creates a new activities handler
func NewActivitiesHandler(db *database.DB, cfg *config.Config) *ActivitiesHandler {
	return &ActivitiesHandler{
		db:     db,
		config: cfg,
		logger: slog.Default(),
	}
}

// activityResponse is the JSON shape of an activity
type activityResponse struct {
	ID                int64   `json:"id"`
	StartTime         string  `json:"start_time"`
	DistanceM         int64   `json:"distance_m"`
	MovingTimeS       int64   `json:"moving_time_s"`
	AvgHR             *int64  `json:"avg_hr,omitempty"`
	ElevGainM         *int64  `json:"elev_gain_m,omitempty"`
	Type              string  `json:"type"`
	PerceivedExertion *int64  `json:"perceived_exertion,omitempty"`
	Shoe              *string `json:"shoe,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	Title             *string `json:"title,omitempty"`
	Source            string  `json:"source"`
	IsPublic          bool    `json:"is_public"`
	StravaActivityID  *int64  `json:"strava_activity_id,omitempty"`
	StravaAthleteID   *int64  `json:"strava_athlete_id,omitempty"`
}

func toActivityResponse(a *database.Activity) *activityResponse {
	return &activityResponse{
		ID:                a.ID,
		StartTime:         a.StartTime,
		DistanceM:         a.DistanceM,
		MovingTimeS:       a.MovingTimeS,
		AvgHR:             a.AvgHR,
		ElevGainM:         a.ElevGainM,
		Type:              a.Type,
		PerceivedExertion: a.PerceivedExertion,
		Shoe:              a.Shoe,
		Notes:             a.Notes,
		Title:             a.Title,
		Source:            a.Source,
		IsPublic:          a.IsPublic,
		StravaActivityID:  a.StravaActivityID,
		StravaAthleteID:   a.StravaAthleteID,
	}
}

// activityRequest is the JSON body for create and partial update. Distances
// arrive in miles and elevation in feet; storage is metric.
type activityRequest struct {
	StartTime         *string  `json:"start_time"`
	Miles             *float64 `json:"miles"`
	MovingTimeS       *float64 `json:"moving_time_s"`
	AvgHR             *float64 `json:"avg_hr"`
	ElevGainFt        *float64 `json:"elev_gain_ft"`
	Type              *string  `json:"type"`
	PerceivedExertion *float64 `json:"perceived_exertion"`
	Shoe              *string  `json:"shoe"`
	Notes             *string  `json:"notes"`
	Title             *string  `json:"title"`
	IsPublic          *bool    `json:"is_public"`
}

// HandleListPublic returns the public activity feed, newest first
func (h *ActivitiesHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	activities, err := h.db.ListPublicActivities(publicListLimit)
	if err != nil {
		h.logger.Error("failed to list public activities", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load activities")
		return
	}

	responses := make([]*activityResponse, 0, len(activities))
	for _, a := range activities {
		responses = append(responses, toActivityResponse(a))
	}

	writeJSON(w, http.StatusOK, map[string]any{"activities": responses})
}

// HandleCreate creates a manually entered activity
func (h *ActivitiesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.config.AdminKey) {
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.StartTime == nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time")
		return
	}
	startTime, err := time.Parse(time.RFC3339, *req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time")
		return
	}

	if req.Miles == nil {
		writeError(w, http.StatusBadRequest, "Invalid miles")
		return
	}
	if req.MovingTimeS == nil {
		writeError(w, http.StatusBadRequest, "Invalid moving_time_s")
		return
	}

	activity := &database.Activity{
		StartTime:   startTime.UTC().Format(time.RFC3339),
		DistanceM:   int64(math.Round(*req.Miles * milesToMeters)),
		MovingTimeS: int64(math.Round(*req.MovingTimeS)),
		Type:        "Run",
		Source:      "manual",
		IsPublic:    true,
	}

	if req.AvgHR != nil {
		avgHR := int64(math.Round(*req.AvgHR))
		activity.AvgHR = &avgHR
	}
	if req.ElevGainFt != nil {
		elevGain := int64(math.Round(*req.ElevGainFt * feetToMeters))
		activity.ElevGainM = &elevGain
	}
	if req.Type != nil {
		activity.Type = *req.Type
	}
	if req.PerceivedExertion != nil {
		pe := int64(math.Round(*req.PerceivedExertion))
		activity.PerceivedExertion = &pe
	}
	activity.Shoe = req.Shoe
	activity.Notes = req.Notes
	activity.Title = req.Title
	if req.IsPublic != nil {
		activity.IsPublic = *req.IsPublic
	}

	created, err := h.db.CreateActivity(activity)
	if err != nil {
		h.logger.Error("failed to create activity", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create activity")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"activity": toActivityResponse(created)})
}

// HandleUpdate applies a partial update to a manually entered activity.
// Strava-sourced rows are not editable through this endpoint.
func (h *ActivitiesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.config.AdminKey) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	update := &database.ActivityUpdate{
		AvgHR:             roundPtr(req.AvgHR),
		Type:              req.Type,
		PerceivedExertion: roundPtr(req.PerceivedExertion),
		Shoe:              req.Shoe,
		Notes:             req.Notes,
		Title:             req.Title,
		IsPublic:          req.IsPublic,
	}

	if req.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time")
			return
		}
		formatted := startTime.UTC().Format(time.RFC3339)
		update.StartTime = &formatted
	}
	if req.Miles != nil {
		distance := int64(math.Round(*req.Miles * milesToMeters))
		update.DistanceM = &distance
	}
	if req.MovingTimeS != nil {
		movingTime := int64(math.Round(*req.MovingTimeS))
		update.MovingTimeS = &movingTime
	}
	if req.ElevGainFt != nil {
		elevGain := int64(math.Round(*req.ElevGainFt * feetToMeters))
		update.ElevGainM = &elevGain
	}

	if update.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No valid fields to update")
		return
	}

	updated, err := h.db.UpdateManualActivity(id, update)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update activity", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to update activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activity": toActivityResponse(updated)})
}

// HandleDelete deletes a manually entered activity
func (h *ActivitiesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.config.AdminKey) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	err = h.db.DeleteManualActivity(id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Activity not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete activity", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to delete activity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePublicize marks every Strava-sourced activity as public
func (h *ActivitiesHandler) HandlePublicize(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.config.AdminKey) {
		return
	}

	updated, err := h.db.PublicizeStravaActivities()
	if err != nil {
		h.logger.Error("failed to publicize activities", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to publicize activities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func roundPtr(v *float64) *int64 {
	if v == nil {
		return nil
	}
	rounded := int64(math.Round(*v))
	return &rounded
}
