package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	email      TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL DEFAULT '',
	unlimited  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	first_seen           TIMESTAMPTZ NOT NULL,
	last_suggested_on    TIMESTAMPTZ,
	times_suggested      INTEGER NOT NULL DEFAULT 0,
	pad_count_last_known INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_history_email ON history(email);
CREATE INDEX IF NOT EXISTS idx_history_last_suggested ON history(email, last_suggested_on);
CREATE INDEX IF NOT EXISTS idx_daily_rows_email ON daily_rows(email);
CREATE INDEX IF NOT EXISTS idx_runs_email ON runs(email);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, email, fullName string) (*model.Profile, error) {
	email = NormalizeEmail(email)
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (email, full_name, unlimited, created_at) VALUES ($1, $2, false, $3)
		 ON CONFLICT (email) DO UPDATE SET
		   full_name = CASE WHEN EXCLUDED.full_name != '' THEN EXCLUDED.full_name ELSE profiles.full_name END`,
		email, fullName, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert profile %s", email)
	}

	var p model.Profile
	err = s.pool.QueryRow(ctx,
		`SELECT email, full_name, unlimited, created_at FROM profiles WHERE email = $1`,
		email,
	).Scan(&p.Email, &p.FullName, &p.Unlimited, &p.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get profile %s", email)
	}
	return &p, nil
}

func (s *PostgresStore) IsUnlimited(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	var unlimited bool
	err := s.pool.QueryRow(ctx,
		`SELECT unlimited FROM profiles WHERE email = $1`,
		email,
	).Scan(&unlimited)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: is unlimited %s", email)
	}
	return unlimited, nil
}

func (s *PostgresStore) LeadsUsedToday(ctx context.Context, email string, now time.Time) (int, error) {
	email = NormalizeEmail(email)
	dayStart := utcDay(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM history
		 WHERE email = $1 AND last_suggested_on >= $2 AND last_suggested_on < $3`,
		email, dayStart, dayEnd,
	).Scan(&count)
	return count, eris.Wrapf(err, "postgres: leads used today %s", email)
}

func (s *PostgresStore) KnownPlaceIDs(ctx context.Context, email string) (map[string]struct{}, error) {
	email = NormalizeEmail(email)
	rows, err := s.pool.Query(ctx,
		`SELECT place_id FROM history WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: known place ids %s", email)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan place id")
		}
		known[id] = struct{}{}
	}
	return known, eris.Wrap(rows.Err(), "postgres: known place ids iterate")
}

const postgresHistoryUpsert = `
INSERT INTO history
	(email, place_id, name, website, phone, address, city, state, zip,
	 first_seen, last_suggested_on, times_suggested, pad_count_last_known, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (email, place_id) DO UPDATE SET
	name = CASE WHEN history.name = '' THEN EXCLUDED.name ELSE history.name END,
	website = CASE WHEN history.website = '' THEN EXCLUDED.website ELSE history.website END,
	phone = CASE WHEN history.phone = '' THEN EXCLUDED.phone ELSE history.phone END,
	address = CASE WHEN history.address = '' THEN EXCLUDED.address ELSE history.address END,
	city = CASE WHEN history.city = '' THEN EXCLUDED.city ELSE history.city END,
	state = CASE WHEN history.state = '' THEN EXCLUDED.state ELSE history.state END,
	zip = CASE WHEN history.zip = '' THEN EXCLUDED.zip ELSE history.zip END,
	last_suggested_on = COALESCE(EXCLUDED.last_suggested_on, history.last_suggested_on),
	times_suggested = history.times_suggested + 1,
	pad_count_last_known = CASE WHEN EXCLUDED.pad_count_last_known > 0
		THEN EXCLUDED.pad_count_last_known ELSE history.pad_count_last_known END`

func (s *PostgresStore) RecordHistory(ctx context.Context, email string, sightings []model.Sighting) error {
	email = NormalizeEmail(email)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin record history")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, sg := range sightings {
		seenOn := sg.SeenOn.UTC()
		var lastSuggested *time.Time
		times := 0
		if sg.Qualified {
			lastSuggested = &seenOn
			times = 1
		}

		c := sg.Candidate
		_, err := tx.Exec(ctx, postgresHistoryUpsert,
			email, c.PlaceID, c.Name, c.Website, c.Phone, c.Address, c.City, c.State, c.Zip,
			seenOn, lastSuggested, times, c.PadCount, seenOn,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert history %s", c.PlaceID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit record history")
}

func (s *PostgresStore) ListHistory(ctx context.Context, email string, limit int) ([]model.HistoryRecord, error) {
	email = NormalizeEmail(email)
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT email, place_id, name, website, phone, address, city, state, zip,
		        first_seen, last_suggested_on, times_suggested, pad_count_last_known, created_at
		 FROM history WHERE email = $1
		 ORDER BY last_suggested_on DESC NULLS LAST, first_seen DESC
		 LIMIT $2`,
		email, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list history %s", email)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var r model.HistoryRecord
		var lastSuggested *time.Time
		err := rows.Scan(&r.Email, &r.PlaceID, &r.Name, &r.Website, &r.Phone,
			&r.Address, &r.City, &r.State, &r.Zip,
			&r.FirstSeen, &lastSuggested, &r.TimesSuggested, &r.PadCountLastKnown, &r.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan history")
		}
		r.LastSuggestedOn = lastSuggested
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list history iterate")
}

func (s *PostgresStore) ReadDailyRows(ctx context.Context, email string) ([]model.DailyRow, error) {
	email = NormalizeEmail(email)
	rows, err := s.pool.Query(ctx,
		`SELECT place_id, date_generated, name, phone, website, address, city, state, zip,
		        source, booking_detected, detected_keyword, pad_count,
		        notes, call_status, outcome, follow_up_date, owner_name, owner_phone, owner_email
		 FROM daily_rows WHERE email = $1 ORDER BY position`,
		email,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read daily rows %s", email)
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
			return nil, eris.Wrap(err, "postgres: scan daily row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: read daily rows iterate")
}

func (s *PostgresStore) WriteDailyRows(ctx context.Context, email string, rows []model.DailyRow) error {
	email = NormalizeEmail(email)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin write daily rows")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM daily_rows WHERE email = $1`, email); err != nil {
		return eris.Wrapf(err, "postgres: clear daily rows %s", email)
	}

	for i, r := range rows {
		_, err := tx.Exec(ctx,
			`INSERT INTO daily_rows
			 (email, place_id, date_generated, name, phone, website, address, city, state, zip,
			  source, booking_detected, detected_keyword, pad_count,
			  notes, call_status, outcome, follow_up_date, owner_name, owner_phone, owner_email, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			         $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
			email, r.PlaceID, r.DateGenerated, r.Name, r.Phone, r.Website,
			r.Address, r.City, r.State, r.Zip,
			r.Source, r.BookingFound, r.Keyword, r.PadCount,
			r.Notes, r.CallStatus, r.Outcome, r.FollowUpDate,
			r.OwnerName, r.OwnerPhone, r.OwnerEmail, i,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert daily row %s", r.PlaceID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit write daily rows")
}

func (s *PostgresStore) CreateRun(ctx context.Context, email, origin string, requested int) (*model.Run, error) {
	email = NormalizeEmail(email)
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, email, origin, requested, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, email, origin, requested, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, checked, found int, quota model.QuotaStatus, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET checked = $1, found = $2, quota_status = $3, status = $4, completed_at = $5 WHERE id = $6`,
		checked, found, string(quota), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}
