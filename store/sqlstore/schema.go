package sqlstore

func (d dialect) schema() []string {
	if d == postgresDialect {
		return postgresSchema
	}
	return sqliteSchema
}

// Money columns are TEXT in SQLite so decimal strings round-trip exactly;
// NUMERIC affinity would turn them into floats.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS offerings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		duration_weeks INTEGER,
		effort_hours INTEGER,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wbs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offering_activities (
		offering_id TEXT NOT NULL REFERENCES offerings(id) ON DELETE CASCADE,
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		sequence INTEGER,
		is_mandatory BOOLEAN NOT NULL DEFAULT 1,
		PRIMARY KEY (offering_id, activity_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offering_activities_activity
		ON offering_activities(activity_id)`,
	`CREATE TABLE IF NOT EXISTS activity_wbs (
		activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		wbs_id TEXT NOT NULL REFERENCES wbs(id) ON DELETE CASCADE,
		PRIMARY KEY (activity_id, wbs_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_wbs_wbs
		ON activity_wbs(wbs_id)`,
	`CREATE TABLE IF NOT EXISTS staffing (
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		role TEXT NOT NULL,
		band INTEGER NOT NULL CHECK (band >= 0),
		UNIQUE (country, role, band)
	)`,
	`CREATE TABLE IF NOT EXISTS wbs_staffing (
		wbs_id TEXT NOT NULL REFERENCES wbs(id) ON DELETE CASCADE,
		staffing_id TEXT NOT NULL REFERENCES staffing(id) ON DELETE CASCADE,
		hours INTEGER CHECK (hours IS NULL OR hours >= 0),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (wbs_id, staffing_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_staffing_staffing
		ON wbs_staffing(staffing_id)`,
	`CREATE TABLE IF NOT EXISTS rate_cards (
		id TEXT PRIMARY KEY,
		staffing_id TEXT NOT NULL UNIQUE REFERENCES staffing(id) ON DELETE CASCADE,
		cost TEXT,
		sale_price TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS offerings (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		duration_weeks BIGINT,
		effort_hours BIGINT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wbs (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offering_activities (
		offering_id UUID NOT NULL REFERENCES offerings(id) ON DELETE CASCADE,
		activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		sequence BIGINT,
		is_mandatory BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (offering_id, activity_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offering_activities_activity
		ON offering_activities(activity_id)`,
	`CREATE TABLE IF NOT EXISTS activity_wbs (
		activity_id UUID NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
		wbs_id UUID NOT NULL REFERENCES wbs(id) ON DELETE CASCADE,
		PRIMARY KEY (activity_id, wbs_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_wbs_wbs
		ON activity_wbs(wbs_id)`,
	`CREATE TABLE IF NOT EXISTS staffing (
		id UUID PRIMARY KEY,
		country VARCHAR(50) NOT NULL,
		role VARCHAR(100) NOT NULL,
		band BIGINT NOT NULL CHECK (band >= 0),
		UNIQUE (country, role, band)
	)`,
	`CREATE TABLE IF NOT EXISTS wbs_staffing (
		wbs_id UUID NOT NULL REFERENCES wbs(id) ON DELETE CASCADE,
		staffing_id UUID NOT NULL REFERENCES staffing(id) ON DELETE CASCADE,
		hours BIGINT CHECK (hours IS NULL OR hours >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (wbs_id, staffing_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wbs_staffing_staffing
		ON wbs_staffing(staffing_id)`,
	`CREATE TABLE IF NOT EXISTS rate_cards (
		id UUID PRIMARY KEY,
		staffing_id UUID NOT NULL UNIQUE REFERENCES staffing(id) ON DELETE CASCADE,
		cost NUMERIC(12,2),
		sale_price NUMERIC(12,2),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}
