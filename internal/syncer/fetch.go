package syncer

import (
	"context"
	"fmt"
	"sync"

	"runlog/internal/metrics"
	"runlog/internal/strava"
)

// fetchAndEnrich fetches one page of recent activity summaries and enriches
// each with its detail description. The list call is fatal; a failing detail
// call only degrades that one item to its summary description. Detail calls
// run concurrently but the returned slice preserves summary order.
func (s *Syncer) fetchAndEnrich(ctx context.Context, accessToken string) ([]strava.SummaryActivity, error) {
	summaries, err := s.client.ListActivities(ctx, accessToken, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	enriched := make([]strava.SummaryActivity, len(summaries))
	var wg sync.WaitGroup
	for i, summary := range summaries {
		wg.Add(1)
		go func(i int, summary strava.SummaryActivity) {
			defer wg.Done()
			enriched[i] = s.enrich(ctx, accessToken, summary)
		}(i, summary)
	}
	wg.Wait()

	return enriched, nil
}

func (s *Syncer) enrich(ctx context.Context, accessToken string, summary strava.SummaryActivity) strava.SummaryActivity {
	detail, err := s.client.GetActivityDetail(ctx, accessToken, summary.ID)
	if err != nil {
		s.logger.Warn("detail enrichment failed, using summary description",
			"activity_id", summary.ID,
			"error", err)
		metrics.EnrichmentFailuresTotal.Inc()
		return summary
	}

	if detail.Description != nil {
		summary.Description = detail.Description
	}
	return summary
}
