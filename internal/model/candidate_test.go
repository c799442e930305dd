package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidate_Qualifies(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want bool
	}{
		{"no booking, unknown pads", Candidate{}, true},
		{"no booking, pads at minimum", Candidate{PadCount: 40}, true},
		{"no booking, pads above minimum", Candidate{PadCount: 250}, true},
		{"no booking, pads below minimum", Candidate{PadCount: 12}, false},
		{"booking detected, big park", Candidate{HasBooking: true, PadCount: 500}, false},
		{"booking detected, unknown pads", Candidate{HasBooking: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Qualifies(40))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", SanitizeURL("https://example.com"))
	assert.Equal(t, "http://example.com/about", SanitizeURL(" http://example.com/about "))
	assert.Empty(t, SanitizeURL("example.com"))
	assert.Empty(t, SanitizeURL("ftp://example.com"))
	assert.Empty(t, SanitizeURL(""))
	assert.Empty(t, SanitizeURL("Call for availability"))
}

func TestNewDailyRow_Notes(t *testing.T) {
	withPads := NewDailyRow(Candidate{PlaceID: "p1", Name: "Pine Grove", PadCount: 85}, "2026-08-31")
	assert.Equal(t, "85", withPads.PadCount)
	assert.Equal(t, "Pad count inferred from site", withPads.Notes)
	assert.Equal(t, LeadSource, withPads.Source)
	assert.Equal(t, "false", withPads.BookingFound)

	unknown := NewDailyRow(Candidate{PlaceID: "p2", Name: "River Bend"}, "2026-08-31")
	assert.Empty(t, unknown.PadCount)
	assert.Equal(t, "Verify pad count by phone", unknown.Notes)
}
