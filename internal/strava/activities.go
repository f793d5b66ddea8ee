package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"runlog/internal/metrics"
)

// SummaryActivity is one entry from the athlete activities list endpoint
type SummaryActivity struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	StartDate          string   `json:"start_date"`
	Distance           float64  `json:"distance"`
	MovingTime         float64  `json:"moving_time"`
	TotalElevationGain float64  `json:"total_elevation_gain"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	Type               *string  `json:"type"`
	SportType          *string  `json:"sport_type"`
}

// DetailedActivity holds the subset of the activity detail endpoint we use
type DetailedActivity struct {
	Description *string `json:"description"`
}

// ListActivities fetches the most recent activity summaries in one call
func (c *Client) ListActivities(ctx context.Context, accessToken string, perPage int) ([]SummaryActivity, error) {
	params := url.Values{
		"per_page": {strconv.Itoa(perPage)},
	}

	body, err := c.get(ctx, metrics.OpListActivities, "/athlete/activities?"+params.Encode(), accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var activities []SummaryActivity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}

	return activities, nil
}

// GetActivityDetail fetches the detail record for one activity
func (c *Client) GetActivityDetail(ctx context.Context, accessToken string, activityID int64) (*DetailedActivity, error) {
	path := fmt.Sprintf("/activities/%d?include_all_efforts=false", activityID)

	body, err := c.get(ctx, metrics.OpGetActivity, path, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %d: %w", activityID, err)
	}

	var detail DetailedActivity
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity %d: %w", activityID, err)
	}

	return &detail, nil
}

// GetAthlete fetches the authenticated athlete's profile
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (json.RawMessage, error) {
	body, err := c.get(ctx, metrics.OpGetAthlete, "/athlete", accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	return json.RawMessage(body), nil
}
