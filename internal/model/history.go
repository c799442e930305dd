package model

import "time"

// HistoryRecord is one row per park ever evaluated for a caller, keyed by
// (caller email, place_id). It prevents re-surfacing and tracks repeat
// sightings. The pipeline only inserts and updates these rows; it never
// deletes them and never decrements the counter.
type HistoryRecord struct {
	Email   string `json:"email"`
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Website string `json:"website"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`

	FirstSeen       time.Time  `json:"first_seen"`
	LastSuggestedOn *time.Time `json:"last_suggested_on,omitempty"`
	TimesSuggested  int        `json:"times_suggested"`
	// PadCountLastKnown is zero when no capacity was ever inferred.
	PadCountLastKnown int       `json:"pad_count_last_known"`
	CreatedAt         time.Time `json:"created_at"`
}

// Sighting is the ledger input for one evaluated candidate in one run.
type Sighting struct {
	Candidate Candidate
	Qualified bool
	SeenOn    time.Time
}
