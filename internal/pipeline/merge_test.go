package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentum-leads/rvprospector/internal/model"
)

func TestMergeRows_PreservesAnnotations(t *testing.T) {
	existing := []model.DailyRow{{
		PlaceID:    "p1",
		Name:       "Pine Grove RV Park",
		Phone:      "704-555-0101",
		Notes:      "Owner prefers afternoon calls",
		CallStatus: "left voicemail",
		OwnerName:  "Dana",
	}}
	fresh := []model.DailyRow{{
		PlaceID:  "p1",
		Name:     "Pine Grove RV Park & Campground",
		Phone:    "704-555-9999",
		Website:  "https://pinegrove.example",
		Notes:    "Verify pad count by phone",
		PadCount: "120",
	}}

	out := MergeRows(existing, fresh)
	require.Len(t, out, 1)

	// Human-entered fields survive untouched.
	assert.Equal(t, "Owner prefers afternoon calls", out[0].Notes)
	assert.Equal(t, "left voicemail", out[0].CallStatus)
	assert.Equal(t, "Dana", out[0].OwnerName)

	// Stored non-empty pipeline fields win too; only blanks fill in.
	assert.Equal(t, "Pine Grove RV Park", out[0].Name)
	assert.Equal(t, "704-555-0101", out[0].Phone)
	assert.Equal(t, "https://pinegrove.example", out[0].Website)
	assert.Equal(t, "120", out[0].PadCount)
}

func TestMergeRows_InsertsNewRows(t *testing.T) {
	existing := []model.DailyRow{{PlaceID: "p1", Name: "First"}}
	fresh := []model.DailyRow{
		{PlaceID: "p2", Name: "Second"},
		{PlaceID: "p3", Name: "Third"},
	}

	out := MergeRows(existing, fresh)
	require.Len(t, out, 3)
	assert.Equal(t, "p1", out[0].PlaceID)
	assert.Equal(t, "p2", out[1].PlaceID)
	assert.Equal(t, "p3", out[2].PlaceID)
}

func TestMergeRows_Idempotent(t *testing.T) {
	existing := []model.DailyRow{{PlaceID: "p1", Name: "Pine Grove", Notes: "call back"}}
	fresh := []model.DailyRow{
		{PlaceID: "p1", Website: "https://pinegrove.example", Notes: "Verify pad count by phone"},
		{PlaceID: "p2", Name: "River Bend"},
	}

	once := MergeRows(existing, fresh)
	twice := MergeRows(once, fresh)
	assert.Equal(t, once, twice)
}

func TestMergeRows_EmptyInputs(t *testing.T) {
	assert.Empty(t, MergeRows(nil, nil))

	fresh := []model.DailyRow{{PlaceID: "p1"}}
	out := MergeRows(nil, fresh)
	require.Len(t, out, 1)

	existing := []model.DailyRow{{PlaceID: "p1"}}
	assert.Equal(t, existing, MergeRows(existing, nil))
}
