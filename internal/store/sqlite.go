package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	email      TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL DEFAULT '',
	unlimited  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS history (
	email                TEXT NOT NULL,
	place_id             TEXT NOT NULL,
	name                 TEXT NOT NULL DEFAULT '',
	website              TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL DEFAULT '',
	zip                  TEXT NOT NULL DEFAULT '',
	first_seen           DATETIME NOT NULL,
	last_suggested_on    DATETIME,
	times_suggested      INTEGER NOT NULL DEFAULT 0,
	pad_count_last_known INTEGER NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (email, place_id)
);

CREATE TABLE IF NOT EXISTS daily_rows (
	email            TEXT NOT NULL,
	place_id         TEXT NOT NULL,
	date_generated   TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	website          TEXT NOT NULL DEFAULT '',
	address          TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	zip              TEXT NOT NULL DEFAULT '',
	source           TEXT NOT NULL DEFAULT '',
	booking_detected TEXT NOT NULL DEFAULT '',
	detected_keyword TEXT NOT NULL DEFAULT '',
	pad_count        TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	call_status      TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL DEFAULT '',
	follow_up_date   TEXT NOT NULL DEFAULT '',
	owner_name       TEXT NOT NULL DEFAULT '',
	owner_phone      TEXT NOT NULL DEFAULT '',
	owner_email      TEXT NOT NULL DEFAULT '',
	position         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (email, place_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL,
	origin       TEXT NOT NULL DEFAULT '',
	requested    INTEGER NOT NULL DEFAULT 0,
	checked      INTEGER NOT NULL DEFAULT 0,
	found        INTEGER NOT NULL DEFAULT 0,
	quota_status TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'running',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_history_email ON history(email);
CREATE INDEX IF NOT EXISTS idx_history_last_suggested ON history(email, last_suggested_on);
CREATE INDEX IF NOT EXISTS idx_daily_rows_email ON daily_rows(email);
CREATE INDEX IF NOT EXISTS idx_runs_email ON runs(email);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, email, fullName string) (*model.Profile, error) {
	email = NormalizeEmail(email)
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (email, full_name, unlimited, created_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   full_name = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE profiles.full_name END`,
		email, fullName, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert profile %s", email)
	}

	var p model.Profile
	err = s.db.QueryRowContext(ctx,
		`SELECT email, full_name, unlimited, created_at FROM profiles WHERE email = ?`,
		email,
	).Scan(&p.Email, &p.FullName, &p.Unlimited, &p.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", email)
	}
	return &p, nil
}

func (s *SQLiteStore) IsUnlimited(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	var unlimited bool
	err := s.db.QueryRowContext(ctx,
		`SELECT unlimited FROM profiles WHERE email = ?`,
		email,
	).Scan(&unlimited)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: is unlimited %s", email)
	}
	return unlimited, nil
}

func (s *SQLiteStore) LeadsUsedToday(ctx context.Context, email string, now time.Time) (int, error) {
	email = NormalizeEmail(email)
	dayStart := utcDay(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history
		 WHERE email = ? AND last_suggested_on >= ? AND last_suggested_on < ?`,
		email, dayStart, dayEnd,
	).Scan(&count)
	return count, eris.Wrapf(err, "sqlite: leads used today %s", email)
}

func (s *SQLiteStore) KnownPlaceIDs(ctx context.Context, email string) (map[string]struct{}, error) {
	email = NormalizeEmail(email)
	rows, err := s.db.QueryContext(ctx,
		`SELECT place_id FROM history WHERE email = ?`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: known place ids %s", email)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place id")
		}
		known[id] = struct{}{}
	}
	return known, eris.Wrap(rows.Err(), "sqlite: known place ids iterate")
}

const sqliteHistoryUpsert = `
INSERT INTO history
	(email, place_id, name, website, phone, address, city, state, zip,
	 first_seen, last_suggested_on, times_suggested, pad_count_last_known, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(email, place_id) DO UPDATE SET
	name = CASE WHEN history.name = '' THEN excluded.name ELSE history.name END,
	website = CASE WHEN history.website = '' THEN excluded.website ELSE history.website END,
	phone = CASE WHEN history.phone = '' THEN excluded.phone ELSE history.phone END,
	address = CASE WHEN history.address = '' THEN excluded.address ELSE history.address END,
	city = CASE WHEN history.city = '' THEN excluded.city ELSE history.city END,
	state = CASE WHEN history.state = '' THEN excluded.state ELSE history.state END,
	zip = CASE WHEN history.zip = '' THEN excluded.zip ELSE history.zip END,
	last_suggested_on = COALESCE(excluded.last_suggested_on, history.last_suggested_on),
	times_suggested = history.times_suggested + 1,
	pad_count_last_known = CASE WHEN excluded.pad_count_last_known > 0
		THEN excluded.pad_count_last_known ELSE history.pad_count_last_known END`

func (s *SQLiteStore) RecordHistory(ctx context.Context, email string, sightings []model.Sighting) error {
	email = NormalizeEmail(email)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin record history")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, sg := range sightings {
		seenOn := sg.SeenOn.UTC()
		var lastSuggested *time.Time
		times := 0
		if sg.Qualified {
			lastSuggested = &seenOn
			times = 1
		}

		c := sg.Candidate
		_, err := tx.ExecContext(ctx, sqliteHistoryUpsert,
			email, c.PlaceID, c.Name, c.Website, c.Phone, c.Address, c.City, c.State, c.Zip,
			seenOn, lastSuggested, times, c.PadCount, seenOn,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert history %s", c.PlaceID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit record history")
}

func (s *SQLiteStore) ListHistory(ctx context.Context, email string, limit int) ([]model.HistoryRecord, error) {
	email = NormalizeEmail(email)
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT email, place_id, name, website, phone, address, city, state, zip,
		        first_seen, last_suggested_on, times_suggested, pad_count_last_known, created_at
		 FROM history WHERE email = ?
		 ORDER BY last_suggested_on IS NULL, last_suggested_on DESC, first_seen DESC
		 LIMIT ?`,
		email, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list history %s", email)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var r model.HistoryRecord
		var lastSuggested sql.NullTime
		err := rows.Scan(&r.Email, &r.PlaceID, &r.Name, &r.Website, &r.Phone,
			&r.Address, &r.City, &r.State, &r.Zip,
			&r.FirstSeen, &lastSuggested, &r.TimesSuggested, &r.PadCountLastKnown, &r.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history")
		}
		if lastSuggested.Valid {
			t := lastSuggested.Time
			r.LastSuggestedOn = &t
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list history iterate")
}

func (s *SQLiteStore) ReadDailyRows(ctx context.Context, email string) ([]model.DailyRow, error) {
	email = NormalizeEmail(email)
	rows, err := s.db.QueryContext(ctx,
		`SELECT place_id, date_generated, name, phone, website, address, city, state, zip,
		        source, booking_detected, detected_keyword, pad_count,
		        notes, call_status, outcome, follow_up_date, owner_name, owner_phone, owner_email
		 FROM daily_rows WHERE email = ? ORDER BY position`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read daily rows %s", email)
	}
	defer rows.Close()

	var out []model.DailyRow
	for rows.Next() {
		var r model.DailyRow
		err := rows.Scan(&r.PlaceID, &r.DateGenerated, &r.Name, &r.Phone, &r.Website,
			&r.Address, &r.City, &r.State, &r.Zip,
			&r.Source, &r.BookingFound, &r.Keyword, &r.PadCount,
			&r.Notes, &r.CallStatus, &r.Outcome, &r.FollowUpDate,
			&r.OwnerName, &r.OwnerPhone, &r.OwnerEmail)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan daily row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: read daily rows iterate")
}

// WriteDailyRows replaces the caller's stored list with the merged rows.
// The merge itself happens upstream; here the whole list is swapped in one
// transaction so readers never see a half-written list.
func (s *SQLiteStore) WriteDailyRows(ctx context.Context, email string, rows []model.DailyRow) error {
	email = NormalizeEmail(email)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin write daily rows")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_rows WHERE email = ?`, email); err != nil {
		return eris.Wrapf(err, "sqlite: clear daily rows %s", email)
	}

	for i, r := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO daily_rows
			 (email, place_id, date_generated, name, phone, website, address, city, state, zip,
			  source, booking_detected, detected_keyword, pad_count,
			  notes, call_status, outcome, follow_up_date, owner_name, owner_phone, owner_email, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			email, r.PlaceID, r.DateGenerated, r.Name, r.Phone, r.Website,
			r.Address, r.City, r.State, r.Zip,
			r.Source, r.BookingFound, r.Keyword, r.PadCount,
			r.Notes, r.CallStatus, r.Outcome, r.FollowUpDate,
			r.OwnerName, r.OwnerPhone, r.OwnerEmail, i,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert daily row %s", r.PlaceID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit write daily rows")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, email, origin string, requested int) (*model.Run, error) {
	email = NormalizeEmail(email)
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, email, origin, requested, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, origin, requested, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Email:     email,
		Origin:    origin,
		Requested: requested,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, checked, found int, quota model.QuotaStatus, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET checked = ?, found = ?, quota_status = ?, status = ?, completed_at = ? WHERE id = ?`,
		checked, found, string(quota), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
