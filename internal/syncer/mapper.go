package syncer

import (
	"math"
	"strings"
	"time"

	"runlog/internal/database"
	"runlog/internal/strava"
)

// defaultActivityType is used when Strava provides neither sport_type nor type
const defaultActivityType = "Run"

// MapActivity converts an enriched Strava summary into a storage row.
// Pure transformation: no I/O, no failure path.
//
// The heart rate field is a nil pointer, not zero, when Strava omitted it;
// the upsert leaves a previously stored value untouched in that case.
func MapActivity(activity strava.SummaryActivity, athleteID int64) *database.Activity {
	startTime := activity.StartDate
	if t, err := time.Parse(time.RFC3339, activity.StartDate); err == nil {
		startTime = t.UTC().Format(time.RFC3339)
	}

	activityType := defaultActivityType
	if activity.SportType != nil && strings.TrimSpace(*activity.SportType) != "" {
		activityType = strings.TrimSpace(*activity.SportType)
	} else if activity.Type != nil && strings.TrimSpace(*activity.Type) != "" {
		activityType = strings.TrimSpace(*activity.Type)
	}

	notes := activity.Name
	if activity.Description != nil {
		if trimmed := strings.TrimSpace(*activity.Description); trimmed != "" {
			notes = trimmed
		}
	}

	title := activity.Name
	stravaActivityID := activity.ID
	stravaAthleteID := athleteID
	elevGain := int64(math.Round(activity.TotalElevationGain))

	row := &database.Activity{
		StartTime:        startTime,
		DistanceM:        int64(math.Round(activity.Distance)),
		MovingTimeS:      int64(math.Round(activity.MovingTime)),
		ElevGainM:        &elevGain,
		Type:             activityType,
		Notes:            &notes,
		Title:            &title,
		Source:           "strava",
		IsPublic:         false,
		StravaActivityID: &stravaActivityID,
		StravaAthleteID:  &stravaAthleteID,
	}

	if activity.AverageHeartrate != nil {
		avgHR := int64(math.Round(*activity.AverageHeartrate))
		row.AvgHR = &avgHR
	}

	return row
}
