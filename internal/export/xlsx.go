package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// dailyHeader mirrors the csv tag order on model.DailyRow so both exports
// present identical columns.
var dailyHeader = []string{
	"park_place_id", "date_generated", "park_name", "phone", "website",
	"address", "city", "state", "zip", "source",
	"booking_detected", "detected_keyword", "pad_count",
	"notes", "call_status", "outcome", "follow_up_date",
	"owner_name", "owner_phone", "owner_email",
}

func rowValues(r model.DailyRow) []string {
	return []string{
		r.PlaceID, r.DateGenerated, r.Name, r.Phone, r.Website,
		r.Address, r.City, r.State, r.Zip, r.Source,
		r.BookingFound, r.Keyword, r.PadCount,
		r.Notes, r.CallStatus, r.Outcome, r.FollowUpDate,
		r.OwnerName, r.OwnerPhone, r.OwnerEmail,
	}
}

// WriteXLSX writes the full lead list as a single-sheet workbook,
// overwriting any existing file.
func WriteXLSX(path string, rows []model.DailyRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Daily List")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range dailyHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range rowValues(r) {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
