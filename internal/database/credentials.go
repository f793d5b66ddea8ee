package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Credentials is the persisted Strava OAuth token set for one athlete
type Credentials struct {
	AthleteID        int64
	AthleteUsername  *string
	AthleteFirstname *string
	AthleteLastname  *string
	AccessToken      string
	RefreshToken     string
	TokenType        string
	Scope            *string
	ExpiresAt        string // RFC 3339
	CreatedAt        int64
	UpdatedAt        int64
}

// GetCredentials loads the single stored credential record.
// Returns ErrNotFound if no athlete has authorized yet.
func (db *DB) GetCredentials() (*Credentials, error) {
	var c Credentials
	err := db.conn.QueryRow(`
		SELECT athlete_id, athlete_username, athlete_firstname, athlete_lastname,
		       access_token, refresh_token, token_type, scope, expires_at,
		       created_at, updated_at
		FROM strava_credentials
		LIMIT 1
	`).Scan(
		&c.AthleteID, &c.AthleteUsername, &c.AthleteFirstname, &c.AthleteLastname,
		&c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope, &c.ExpiresAt,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &c, nil
}

// UpsertCredentials inserts or replaces the credential record keyed on
// athlete_id. Called on every completed OAuth authorization.
func (db *DB) UpsertCredentials(c *Credentials) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO strava_credentials (
			athlete_id, athlete_username, athlete_firstname, athlete_lastname,
			access_token, refresh_token, token_type, scope, expires_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO UPDATE SET
			athlete_username = excluded.athlete_username,
			athlete_firstname = excluded.athlete_firstname,
			athlete_lastname = excluded.athlete_lastname,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, c.AthleteID, c.AthleteUsername, c.AthleteFirstname, c.AthleteLastname,
		c.AccessToken, c.RefreshToken, c.TokenType, c.Scope, c.ExpiresAt,
		now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert credentials: %w", err)
	}
	return nil
}

// UpdateCredentialsByRefreshToken rotates the stored token set. The update
// is keyed on the old refresh token because the refresh token itself rotates
// on every refresh. Zero rows matched means another refresh already rotated
// the record; that is surfaced as ErrStaleCredentials, never ignored.
func (db *DB) UpdateCredentialsByRefreshToken(oldRefreshToken, accessToken, refreshToken, tokenType string, scope *string, expiresAt string) error {
	result, err := db.conn.Exec(`
		UPDATE strava_credentials
		SET access_token = ?, refresh_token = ?, token_type = ?, scope = ?,
		    expires_at = ?, updated_at = ?
		WHERE refresh_token = ?
	`, accessToken, refreshToken, tokenType, scope, expiresAt, time.Now().Unix(), oldRefreshToken)

	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrStaleCredentials
	}

	return nil
}
