package store

import (
	"context"
	"strings"
	"time"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// Store defines the persistence interface for the prospecting pipeline:
// caller profiles, the per-caller history ledger, the authoritative daily
// lead list, and run records.
//
// The ledger and the daily-row writes are read-then-write per run and are
// not designed for concurrent writers on one caller account; a caller runs
// one search at a time and last-writer-wins is acceptable otherwise.
type Store interface {
	// Profiles
	UpsertProfile(ctx context.Context, email, fullName string) (*model.Profile, error)
	IsUnlimited(ctx context.Context, email string) (bool, error)

	// Quota and dedup inputs
	LeadsUsedToday(ctx context.Context, email string, now time.Time) (int, error)
	KnownPlaceIDs(ctx context.Context, email string) (map[string]struct{}, error)

	// History ledger. RecordHistory upserts one record per sighting, in
	// slice order: unseen ids insert with TimesSuggested 1 (qualified) or 0;
	// every repeat sighting bumps TimesSuggested by one. LastSuggestedOn
	// refreshes only on a qualifying sighting, and PadCountLastKnown
	// whenever a count was inferred. Contact fields keep the stored
	// non-empty value.
	RecordHistory(ctx context.Context, email string, sightings []model.Sighting) error
	ListHistory(ctx context.Context, email string, limit int) ([]model.HistoryRecord, error)

	// Authoritative daily list
	ReadDailyRows(ctx context.Context, email string) ([]model.DailyRow, error)
	WriteDailyRows(ctx context.Context, email string, rows []model.DailyRow) error

	// Run records
	CreateRun(ctx context.Context, email, origin string, requested int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, checked, found int, quota model.QuotaStatus, status model.RunStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// utcDay returns the start of now's UTC day, the window used for quota
// accounting.
func utcDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeEmail canonicalizes a caller key. Quota and dedup lookups must
// agree on case, so every store entry point normalizes before touching rows.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
