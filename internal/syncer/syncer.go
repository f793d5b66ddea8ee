package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"runlog/internal/database"
	"runlog/internal/metrics"
	"runlog/internal/strava"
)

// pageSize is how many recent activity summaries one sync run fetches
const pageSize = 50

// Syncer imports recent Strava activities into local storage
type Syncer struct {
	db     *database.DB
	client *strava.Client
	logger *slog.Logger
}

// Result reports what a completed sync run did
type Result struct {
	Imported int `json:"imported"`
	Upserted int `json:"upserted"`
}

// New creates a new Syncer
func New(db *database.DB, client *strava.Client) *Syncer {
	return &Syncer{
		db:     db,
		client: client,
		logger: slog.Default(),
	}
}

// Run performs one full sync: load credentials, ensure a usable access
// token, fetch and enrich recent activities, map them, and write the batch.
// Any failure before the final upsert aborts the whole run; there is no
// partial success. An empty remote activity list is a successful run with
// zero counts.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	result, err := s.run(ctx)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(metrics.SyncOutcomeFailure).Inc()
		return nil, err
	}

	metrics.SyncRunsTotal.WithLabelValues(metrics.SyncOutcomeSuccess).Inc()
	metrics.SyncUpsertBatchSize.Observe(float64(result.Upserted))
	return result, nil
}

func (s *Syncer) run(ctx context.Context) (*Result, error) {
	creds, err := s.db.GetCredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to load strava credentials: %w", err)
	}

	accessToken, err := s.ValidAccessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	activities, err := s.fetchAndEnrich(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	rows := make([]*database.Activity, len(activities))
	for i, activity := range activities {
		rows[i] = MapActivity(activity, creds.AthleteID)
	}

	upserted := 0
	if len(rows) > 0 {
		upserted, err = s.db.UpsertStravaActivities(rows)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("sync completed",
		"athlete_id", creds.AthleteID,
		"imported", len(activities),
		"upserted", upserted)

	return &Result{Imported: len(activities), Upserted: upserted}, nil
}
