package model

import "strings"

// Candidate is one park discovered and evaluated in a single run. It is
// assembled from a search hit plus a detail lookup and a classification
// pass, and is never mutated after construction.
type Candidate struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Website string `json:"website"` // absolute http(s) URL or empty
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`

	// PadCount is the advertised site capacity inferred from the park's
	// website. Zero means unknown, which is non-disqualifying.
	PadCount int `json:"pad_count"`

	HasBooking     bool   `json:"has_booking"`
	BookingKeyword string `json:"booking_keyword"`
}

// Qualifies reports whether the candidate passes the hard business rules:
// no online booking system, and either unknown capacity or at least padMin
// advertised pads.
func (c Candidate) Qualifies(padMin int) bool {
	return !c.HasBooking && (c.PadCount == 0 || c.PadCount >= padMin)
}

// SanitizeURL returns s if it is an absolute http(s) URL, else empty.
// Directory detail responses carry relative or garbage website values often
// enough that anything else is treated as "no website".
func SanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}
