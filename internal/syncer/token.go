package syncer

import (
	"context"
	"fmt"
	"time"

	"runlog/internal/database"
	"runlog/internal/metrics"
)

// tokenRefreshBuffer is the safety margin before expiry. A token within
// this window of expiring is refreshed up front so it cannot expire
// mid-flight during the API calls that follow.
const tokenRefreshBuffer = 2 * time.Minute

// ValidAccessToken returns an access token guaranteed usable for the next
// outbound call. If the stored expiry is unparseable or falls within the
// refresh buffer, the token set is refreshed and persisted first, keyed on
// the old refresh token since refresh tokens rotate. At most one refresh
// happens per invocation.
func (s *Syncer) ValidAccessToken(ctx context.Context, creds *database.Credentials) (string, error) {
	expiry, err := time.Parse(time.RFC3339, creds.ExpiresAt)
	if err == nil && time.Now().Add(tokenRefreshBuffer).Before(expiry) {
		return creds.AccessToken, nil
	}

	s.logger.Info("refreshing access token",
		"athlete_id", creds.AthleteID,
		"expires_at", creds.ExpiresAt)
	metrics.TokenRefreshesTotal.Inc()

	tokenResp, err := s.client.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	expiresAt := time.Unix(tokenResp.ExpiresAt, 0).UTC().Format(time.RFC3339)
	err = s.db.UpdateCredentialsByRefreshToken(
		creds.RefreshToken,
		tokenResp.AccessToken,
		tokenResp.RefreshToken,
		tokenResp.TokenType,
		tokenResp.Scope,
		expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to persist refreshed credentials: %w", err)
	}

	return tokenResp.AccessToken, nil
}
