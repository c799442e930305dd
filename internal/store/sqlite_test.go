package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-leads/rvprospector/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sighting(placeID string, qualified bool, padCount int, seenOn time.Time) model.Sighting {
	return model.Sighting{
		Candidate: model.Candidate{
			PlaceID:  placeID,
			Name:     "Park " + placeID,
			Phone:    "704-555-0101",
			PadCount: padCount,
		},
		Qualified: qualified,
		SeenOn:    seenOn,
	}
}

func TestSQLite_UpsertProfile(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p, err := s.UpsertProfile(ctx, "dialer@example.com", "Pat Dialer")
	require.NoError(t, err)
	assert.Equal(t, "Pat Dialer", p.FullName)
	assert.False(t, p.Unlimited)

	// Re-upserting with an empty name keeps the stored one.
	p, err = s.UpsertProfile(ctx, "dialer@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Pat Dialer", p.FullName)

	unlimited, err := s.IsUnlimited(ctx, "dialer@example.com")
	require.NoError(t, err)
	assert.False(t, unlimited)

	// Unknown accounts are simply not unlimited.
	unlimited, err = s.IsUnlimited(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, unlimited)
}

func TestSQLite_RecordHistory_RepeatSightings(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	email := "dialer@example.com"
	now := time.Now().UTC()

	require.NoError(t, s.RecordHistory(ctx, email, []model.Sighting{
		sighting("p1", true, 85, now),
	}))

	records, err := s.ListHistory(ctx, email, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].TimesSuggested)
	assert.Equal(t, 85, records[0].PadCountLastKnown)
	require.NotNil(t, records[0].LastSuggestedOn)

	// A repeat qualifying sighting bumps the counter by exactly one.
	require.NoError(t, s.RecordHistory(ctx, email, []model.Sighting{
		sighting("p1", true, 90, now.Add(time.Minute)),
	}))
	records, err = s.ListHistory(ctx, email, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].TimesSuggested)
	assert.Equal(t, 90, records[0].PadCountLastKnown)

	// An unqualified re-sighting still counts the sighting but does not
	// refresh the suggestion timestamp.
	require.NoError(t, s.RecordHistory(ctx, email, []model.Sighting{
		sighting("p1", false, 0, now.Add(2*time.Minute)),
	}))
	records, err = s.ListHistory(ctx, email, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].TimesSuggested)
	assert.Equal(t, 90, records[0].PadCountLastKnown)
	require.NotNil(t, records[0].LastSuggestedOn)
	assert.WithinDuration(t, now.Add(time.Minute), *records[0].LastSuggestedOn, time.Second)
}

func TestSQLite_RecordHistory_UnqualifiedInsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	email := "dialer@example.com"

	require.NoError(t, s.RecordHistory(ctx, email, []model.Sighting{
		sighting("rejected", false, 0, time.Now()),
	}))

	records, err := s.ListHistory(ctx, email, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].TimesSuggested)
	assert.Nil(t, records[0].LastSuggestedOn)
}

func TestSQLite_EmailKeyIsCaseInsensitive(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.UpsertProfile(ctx, " Dialer@Example.COM", "Pat Dialer")
	require.NoError(t, err)
	require.NoError(t, s.RecordHistory(ctx, "Dialer@Example.com", []model.Sighting{
		sighting("p1", true, 85, now),
	}))

	// Case variants of the caller key must hit the same quota window and
	// dedup history.
	used, err := s.LeadsUsedToday(ctx, "dialer@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	known, err := s.KnownPlaceIDs(ctx, "DIALER@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Contains(t, known, "p1")

	p, err := s.UpsertProfile(ctx, "dialer@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Pat Dialer", p.FullName)
	assert.Equal(t, "dialer@example.com", p.Email)
}

func TestSQLite_KnownPlaceIDs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.RecordHistory(ctx, "a@example.com", []model.Sighting{
		sighting("p1", true, 0, now),
		sighting("p2", false, 0, now),
	}))
	require.NoError(t, s.RecordHistory(ctx, "b@example.com", []model.Sighting{
		sighting("p3", true, 0, now),
	}))

	known, err := s.KnownPlaceIDs(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, known, 2)
	assert.Contains(t, known, "p1")
	assert.Contains(t, known, "p2")
	assert.NotContains(t, known, "p3")
}

func TestSQLite_LeadsUsedToday(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	email := "dialer@example.com"
	now := time.Now().UTC()

	require.NoError(t, s.RecordHistory(ctx, email, []model.Sighting{
		sighting("today-1", true, 0, now),
		sighting("today-2", true, 0, now),
		sighting("rejected", false, 0, now),
		sighting("yesterday", true, 0, now.Add(-48*time.Hour)),
	}))

	used, err := s.LeadsUsedToday(ctx, email, now)
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	used, err = s.LeadsUsedToday(ctx, "other@example.com", now)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestSQLite_DailyRowsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	email := "dialer@example.com"

	rows := []model.DailyRow{
		{PlaceID: "p1", Name: "Pine Grove", Notes: "call back", PadCount: "85"},
		{PlaceID: "p2", Name: "River Bend", Notes: "Verify pad count by phone"},
	}
	require.NoError(t, s.WriteDailyRows(ctx, email, rows))

	got, err := s.ReadDailyRows(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	// A rewrite replaces the list wholesale.
	require.NoError(t, s.WriteDailyRows(ctx, email, rows[:1]))
	got, err = s.ReadDailyRows(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, rows[:1], got)

	got, err = s.ReadDailyRows(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_Runs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "dialer@example.com", "Charlotte, NC", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, s.CompleteRun(ctx, run.ID, 42, 5, model.QuotaOK, model.RunStatusComplete))

	err = s.CompleteRun(ctx, "no-such-run", 0, 0, model.QuotaOK, model.RunStatusComplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
