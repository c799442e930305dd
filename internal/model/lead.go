package model

import "strconv"

// DailyRow is a qualifying candidate in the caller's authoritative lead
// list, plus the annotation fields the caller fills in during outreach.
// CSV tags drive both the CSV export and the XLSX column order.
type DailyRow struct {
	PlaceID       string `json:"place_id" csv:"park_place_id"`
	DateGenerated string `json:"date_generated" csv:"date_generated"`
	Name          string `json:"name" csv:"park_name"`
	Phone         string `json:"phone" csv:"phone"`
	Website       string `json:"website" csv:"website"`
	Address       string `json:"address" csv:"address"`
	City          string `json:"city" csv:"city"`
	State         string `json:"state" csv:"state"`
	Zip           string `json:"zip" csv:"zip"`
	Source        string `json:"source" csv:"source"`
	BookingFound  string `json:"booking_detected" csv:"booking_detected"`
	Keyword       string `json:"detected_keyword" csv:"detected_keyword"`
	PadCount      string `json:"pad_count" csv:"pad_count"`

	// Annotation fields are owned by the caller and are never clobbered by
	// a later pipeline run once set.
	Notes        string `json:"notes" csv:"notes"`
	CallStatus   string `json:"call_status" csv:"call_status"`
	Outcome      string `json:"outcome" csv:"outcome"`
	FollowUpDate string `json:"follow_up_date" csv:"follow_up_date"`
	OwnerName    string `json:"owner_name" csv:"owner_name"`
	OwnerPhone   string `json:"owner_phone" csv:"owner_phone"`
	OwnerEmail   string `json:"owner_email" csv:"owner_email"`
}

// LeadSource is the provenance value stamped on every generated row.
const LeadSource = "Google Places"

// NewDailyRow builds the lead-list row for a qualifying candidate.
func NewDailyRow(c Candidate, date string) DailyRow {
	row := DailyRow{
		PlaceID:       c.PlaceID,
		DateGenerated: date,
		Name:          c.Name,
		Phone:         c.Phone,
		Website:       c.Website,
		Address:       c.Address,
		City:          c.City,
		State:         c.State,
		Zip:           c.Zip,
		Source:        LeadSource,
		BookingFound:  strconv.FormatBool(c.HasBooking),
		Keyword:       c.BookingKeyword,
	}
	if c.PadCount > 0 {
		row.PadCount = strconv.Itoa(c.PadCount)
		row.Notes = "Pad count inferred from site"
	} else {
		row.Notes = "Verify pad count by phone"
	}
	return row
}
