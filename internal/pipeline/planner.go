package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/internal/model"
	"github.com/momentum-leads/rvprospector/pkg/places"
)

// maxPlannerIterations is a hard guard on the phrase x radius x page loop so
// a misbehaving pagination token can never spin the planner forever.
const maxPlannerIterations = 999

// discovery accumulates planner output across pages.
type discovery struct {
	sightings []model.Sighting
	qualified []model.Candidate
	checked   int
	warnings  []string
}

// discover drives the search loop: each phrase is paged through at each
// radius step until enough qualifying candidates are found, the checked
// ceiling is hit, or the iteration guard trips. The page token the
// directory returns needs a short pause before it becomes valid, so there
// is a fixed delay between pages of one phrase.
func (p *Pipeline) discover(ctx context.Context, origin Origin, known map[string]struct{}, allowed int, avoidConglomerates bool, emit Progress) discovery {
	var d discovery
	log := zap.L()

	// Run-local dedup: the same park routinely shows up under several
	// phrases and radii.
	seen := make(map[string]struct{}, len(known))
	for id := range known {
		seen[id] = struct{}{}
	}

	// Text-bias searches ignore the radius parameter, so a single pass is
	// all escalation would ever give them.
	radii := p.cfg.RadiiKm
	if origin.LatLng == nil || len(radii) == 0 {
		radii = []int{p.cfg.DefaultRadiusKm}
	}

	seenOn := time.Now().UTC()
	iterations := 0

	// Each phrase is exhausted across every radius step before the next
	// phrase starts; the ledger records sightings in that order.
	for _, query := range p.cfg.Queries {
		for _, radiusKm := range radii {
			token := ""
			page := 0

			for {
				iterations++
				if iterations > maxPlannerIterations {
					log.Warn("pipeline: planner iteration guard tripped")
					return d
				}

				resp, err := p.places.TextSearch(ctx, places.TextSearchRequest{
					Query:        query,
					Bias:         origin.Bias,
					LatLng:       origin.LatLng,
					RadiusMeters: radiusKm * 1000,
					PageToken:    token,
				})
				if err != nil {
					// Retries are exhausted inside the client; the phrase is
					// abandoned, not the run.
					log.Warn("pipeline: search failed, abandoning phrase",
						zap.String("query", query),
						zap.Int("radius_km", radiusKm),
						zap.Error(err),
					)
					emit(fmt.Sprintf("  [warn] search failed for %q, moving on", query))
					d.warnings = append(d.warnings, fmt.Sprintf("search failed for %q", query))
					break
				}

				page++
				emit(fmt.Sprintf("  [info] Page %d: %d candidates", page, len(resp.Hits)))

				batch := make([]places.SearchHit, 0, len(resp.Hits))
				for _, hit := range resp.Hits {
					if hit.PlaceID == "" {
						continue
					}
					if _, ok := seen[hit.PlaceID]; ok {
						continue
					}
					if d.checked+len(batch) >= p.cfg.MaxChecked {
						break
					}
					seen[hit.PlaceID] = struct{}{}
					batch = append(batch, hit)
				}

				res := p.evaluateBatch(ctx, batch, avoidConglomerates, allowed-len(d.qualified), seenOn, d.checked, emit)
				d.checked += res.dispatched
				d.sightings = append(d.sightings, res.sightings...)
				d.qualified = append(d.qualified, res.qualified...)

				if len(d.qualified) >= allowed || d.checked >= p.cfg.MaxChecked || ctx.Err() != nil {
					return d
				}

				if resp.NextPageToken == "" {
					break
				}
				token = resp.NextPageToken

				select {
				case <-ctx.Done():
					return d
				case <-time.After(p.cfg.PageDelay):
				}
			}
		}
	}

	return d
}
