package pipeline

import "github.com/momentum-leads/rvprospector/internal/model"

// MergeRows combines freshly qualified rows into the existing authoritative
// list. The merge is keyed by place_id and idempotent: for every field a
// stored non-empty value wins, so caller annotations survive and
// pipeline-derived fields are only filled in where they were blank. Existing
// rows keep their order; genuinely new rows append in their delivered order.
func MergeRows(existing, fresh []model.DailyRow) []model.DailyRow {
	index := make(map[string]int, len(existing))
	out := make([]model.DailyRow, len(existing))
	copy(out, existing)
	for i, r := range out {
		index[r.PlaceID] = i
	}

	for _, nr := range fresh {
		i, ok := index[nr.PlaceID]
		if !ok {
			index[nr.PlaceID] = len(out)
			out = append(out, nr)
			continue
		}
		out[i] = mergeRow(out[i], nr)
	}
	return out
}

func mergeRow(old, nr model.DailyRow) model.DailyRow {
	old.DateGenerated = pick(old.DateGenerated, nr.DateGenerated)
	old.Name = pick(old.Name, nr.Name)
	old.Phone = pick(old.Phone, nr.Phone)
	old.Website = pick(old.Website, nr.Website)
	old.Address = pick(old.Address, nr.Address)
	old.City = pick(old.City, nr.City)
	old.State = pick(old.State, nr.State)
	old.Zip = pick(old.Zip, nr.Zip)
	old.Source = pick(old.Source, nr.Source)
	old.BookingFound = pick(old.BookingFound, nr.BookingFound)
	old.Keyword = pick(old.Keyword, nr.Keyword)
	old.PadCount = pick(old.PadCount, nr.PadCount)
	old.Notes = pick(old.Notes, nr.Notes)
	old.CallStatus = pick(old.CallStatus, nr.CallStatus)
	old.Outcome = pick(old.Outcome, nr.Outcome)
	old.FollowUpDate = pick(old.FollowUpDate, nr.FollowUpDate)
	old.OwnerName = pick(old.OwnerName, nr.OwnerName)
	old.OwnerPhone = pick(old.OwnerPhone, nr.OwnerPhone)
	old.OwnerEmail = pick(old.OwnerEmail, nr.OwnerEmail)
	return old
}

func pick(old, nr string) string {
	if old != "" {
		return old
	}
	return nr
}
