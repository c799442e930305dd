package pipeline

import (
	"context"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// recordLedger demotes overflow sightings and writes the run's evaluations
// to the history ledger in planner order. A sighting stays qualified only
// when its candidate was actually delivered this run, so undelivered parks
// neither consume quota nor get locked out of a later run's delivery.
func (p *Pipeline) recordLedger(ctx context.Context, email string, sightings []model.Sighting, delivered []model.Candidate) error {
	deliveredSet := make(map[string]struct{}, len(delivered))
	for _, c := range delivered {
		deliveredSet[c.PlaceID] = struct{}{}
	}
	for i := range sightings {
		if sightings[i].Qualified {
			_, ok := deliveredSet[sightings[i].Candidate.PlaceID]
			sightings[i].Qualified = ok
		}
	}
	return p.store.RecordHistory(ctx, email, sightings)
}
