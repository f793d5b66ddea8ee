package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Activity is one recorded workout, manually entered or synced from Strava
type Activity struct {
	ID                int64
	StartTime         string // RFC 3339
	DistanceM         int64
	MovingTimeS       int64
	AvgHR             *int64
	ElevGainM         *int64
	Type              string
	PerceivedExertion *int64
	Shoe              *string
	Notes             *string
	Title             *string
	Source            string
	IsPublic          bool
	StravaActivityID  *int64
	StravaAthleteID   *int64
	CreatedAt         int64
	UpdatedAt         int64
}

const activityColumns = `id, start_time, distance_m, moving_time_s, avg_hr, elev_gain_m,
	       type, perceived_exertion, shoe, notes, title, source, is_public,
	       strava_activity_id, strava_athlete_id, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (*Activity, error) {
	var a Activity
	err := row.Scan(
		&a.ID, &a.StartTime, &a.DistanceM, &a.MovingTimeS, &a.AvgHR, &a.ElevGainM,
		&a.Type, &a.PerceivedExertion, &a.Shoe, &a.Notes, &a.Title, &a.Source, &a.IsPublic,
		&a.StravaActivityID, &a.StravaAthleteID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateActivity inserts a new activity and returns it with its assigned id
func (db *DB) CreateActivity(a *Activity) (*Activity, error) {
	now := time.Now().Unix()
	a.CreatedAt = now
	a.UpdatedAt = now

	result, err := db.conn.Exec(`
		INSERT INTO activities (
			start_time, distance_m, moving_time_s, avg_hr, elev_gain_m,
			type, perceived_exertion, shoe, notes, title, source, is_public,
			strava_activity_id, strava_athlete_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.StartTime, a.DistanceM, a.MovingTimeS, a.AvgHR, a.ElevGainM,
		a.Type, a.PerceivedExertion, a.Shoe, a.Notes, a.Title, a.Source, a.IsPublic,
		a.StravaActivityID, a.StravaAthleteID, a.CreatedAt, a.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	return db.GetActivity(id)
}

// GetActivity retrieves an activity by id. Returns ErrNotFound if absent.
func (db *DB) GetActivity(id int64) (*Activity, error) {
	a, err := scanActivity(db.conn.QueryRow(
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// ListPublicActivities returns public activities, newest first
func (db *DB) ListPublicActivities(limit int) ([]*Activity, error) {
	if limit < 1 || limit > 100 {
		limit = 100
	}

	rows, err := db.conn.Query(
		`SELECT `+activityColumns+` FROM activities
		 WHERE is_public = 1
		 ORDER BY start_time DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// UpsertStravaActivities writes Strava-sourced rows in a single transaction,
// keyed on strava_activity_id so a re-sync overwrites rather than duplicates.
// An absent avg_hr never clobbers a previously stored value. The whole batch
// commits or rolls back together. Returns the number of rows written.
func (db *DB) UpsertStravaActivities(activities []*Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO activities (
			start_time, distance_m, moving_time_s, avg_hr, elev_gain_m,
			type, notes, title, source, is_public,
			strava_activity_id, strava_athlete_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(strava_activity_id) DO UPDATE SET
			start_time = excluded.start_time,
			distance_m = excluded.distance_m,
			moving_time_s = excluded.moving_time_s,
			avg_hr = COALESCE(excluded.avg_hr, activities.avg_hr),
			elev_gain_m = excluded.elev_gain_m,
			type = excluded.type,
			notes = excluded.notes,
			title = excluded.title,
			strava_athlete_id = excluded.strava_athlete_id,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, a := range activities {
		_, err := stmt.Exec(
			a.StartTime, a.DistanceM, a.MovingTimeS, a.AvgHR, a.ElevGainM,
			a.Type, a.Notes, a.Title, a.Source, a.IsPublic,
			a.StravaActivityID, a.StravaAthleteID, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert activity %v: %w", a.StravaActivityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert batch: %w", err)
	}

	return len(activities), nil
}

// ActivityUpdate describes a partial update of a manual activity.
// Nil fields are left untouched.
type ActivityUpdate struct {
	StartTime         *string
	DistanceM         *int64
	MovingTimeS       *int64
	AvgHR             *int64
	ElevGainM         *int64
	Type              *string
	PerceivedExertion *int64
	Shoe              *string
	Notes             *string
	Title             *string
	IsPublic          *bool
}

// IsEmpty reports whether the update would change nothing
func (u *ActivityUpdate) IsEmpty() bool {
	return u.StartTime == nil && u.DistanceM == nil && u.MovingTimeS == nil &&
		u.AvgHR == nil && u.ElevGainM == nil && u.Type == nil &&
		u.PerceivedExertion == nil && u.Shoe == nil && u.Notes == nil &&
		u.Title == nil && u.IsPublic == nil
}

// UpdateManualActivity applies a partial update to a manually entered
// activity. Strava-sourced rows are never touched; a missing or
// Strava-sourced row surfaces as ErrNotFound.
func (db *DB) UpdateManualActivity(id int64, update *ActivityUpdate) (*Activity, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.StartTime != nil {
		add("start_time", *update.StartTime)
	}
	if update.DistanceM != nil {
		add("distance_m", *update.DistanceM)
	}
	if update.MovingTimeS != nil {
		add("moving_time_s", *update.MovingTimeS)
	}
	if update.AvgHR != nil {
		add("avg_hr", *update.AvgHR)
	}
	if update.ElevGainM != nil {
		add("elev_gain_m", *update.ElevGainM)
	}
	if update.Type != nil {
		add("type", *update.Type)
	}
	if update.PerceivedExertion != nil {
		add("perceived_exertion", *update.PerceivedExertion)
	}
	if update.Shoe != nil {
		add("shoe", *update.Shoe)
	}
	if update.Notes != nil {
		add("notes", *update.Notes)
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.IsPublic != nil {
		add("is_public", *update.IsPublic)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	add("updated_at", time.Now().Unix())
	args = append(args, id)

	result, err := db.conn.Exec(
		`UPDATE activities SET `+strings.Join(sets, ", ")+` WHERE id = ? AND source = 'manual'`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return db.GetActivity(id)
}

// DeleteManualActivity deletes a manually entered activity.
// Strava-sourced rows are never deleted here.
func (db *DB) DeleteManualActivity(id int64) error {
	result, err := db.conn.Exec(
		`DELETE FROM activities WHERE id = ? AND source = 'manual'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// PublicizeStravaActivities marks every Strava-sourced activity public.
// Returns the number of rows updated.
func (db *DB) PublicizeStravaActivities() (int64, error) {
	result, err := db.conn.Exec(
		`UPDATE activities SET is_public = 1, updated_at = ? WHERE source = 'strava'`,
		time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to publicize activities: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
