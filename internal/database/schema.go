package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Strava credentials table: the single stored OAuth token set.
-- One row per athlete; the sync path only ever uses one.
CREATE TABLE IF NOT EXISTS strava_credentials (
    athlete_id INTEGER PRIMARY KEY,

    -- Athlete profile
    athlete_username TEXT,
    athlete_firstname TEXT,
    athlete_lastname TEXT,

    -- OAuth tokens
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    token_type TEXT NOT NULL,
    scope TEXT,
    expires_at TEXT NOT NULL,  -- RFC 3339

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Activities table: manually entered and Strava-sourced runs
CREATE TABLE IF NOT EXISTS activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    start_time TEXT NOT NULL,  -- RFC 3339
    distance_m INTEGER NOT NULL,
    moving_time_s INTEGER NOT NULL,
    avg_hr INTEGER,
    elev_gain_m INTEGER,
    type TEXT NOT NULL DEFAULT 'Run',
    perceived_exertion INTEGER,
    shoe TEXT,
    notes TEXT,
    title TEXT,

    source TEXT NOT NULL,  -- 'manual' or 'strava'
    is_public BOOLEAN NOT NULL DEFAULT 0,

    -- Idempotency keys for Strava-sourced rows. The UNIQUE constraint is
    -- the upsert's conflict target; manual rows leave it NULL, and SQLite
    -- permits any number of NULLs under UNIQUE.
    strava_activity_id INTEGER UNIQUE,
    strava_athlete_id INTEGER,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Indexes for activities table
CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time DESC);
CREATE INDEX IF NOT EXISTS idx_activities_public ON activities(is_public, start_time DESC);
CREATE INDEX IF NOT EXISTS idx_activities_source ON activities(source);
`
