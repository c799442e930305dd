package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentum-leads/rvprospector/internal/model"
	"github.com/momentum-leads/rvprospector/pkg/places"
)

// batchResult carries one page's evaluations back to the planner.
// Sightings are in dispatch order so the ledger records candidates in the
// order the planner produced them; qualified is in completion order, which
// is the order leads surface to the caller.
type batchResult struct {
	sightings  []model.Sighting
	qualified  []model.Candidate
	dispatched int
}

// evaluateBatch runs the per-candidate enrichment for one search page under
// the worker pool. Dispatch stops once need qualifying candidates have been
// found, but in-flight evaluations finish and are still recorded; the
// planner clamps the overall result afterwards. checkedBase is the running
// checked count before this batch, used for the progress lines.
func (p *Pipeline) evaluateBatch(ctx context.Context, hits []places.SearchHit, avoidConglomerates bool, need int, seenOn time.Time, checkedBase int, emit Progress) batchResult {
	if need <= 0 || len(hits) == 0 {
		return batchResult{}
	}

	var (
		found     atomic.Int64
		mu        sync.Mutex
		qualified []model.Candidate
	)
	sightings := make([]*model.Sighting, len(hits))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	dispatched := 0
	for i, hit := range hits {
		if found.Load() >= int64(need) || ctx.Err() != nil {
			break
		}
		dispatched++
		emit(fmt.Sprintf("    [check %d/%d] %s", checkedBase+dispatched, p.cfg.MaxChecked, hit.Name))

		g.Go(func() error {
			c, recorded := p.evaluate(ctx, hit, avoidConglomerates)
			if !recorded {
				return nil
			}
			ok := c.Qualifies(p.cfg.PadMin) && preClassifyReject(c, avoidConglomerates) == rejectNone
			sightings[i] = &model.Sighting{Candidate: c, Qualified: ok, SeenOn: seenOn}
			if ok {
				found.Add(1)
				mu.Lock()
				qualified = append(qualified, c)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	res := batchResult{
		qualified:  qualified,
		dispatched: dispatched,
		sightings:  make([]model.Sighting, 0, dispatched),
	}
	for _, s := range sightings {
		if s != nil {
			res.sightings = append(res.sightings, *s)
		}
	}
	return res
}

// evaluate enriches a single search hit: detail lookup, contact
// normalization, cheap rejection rules, then the website classification.
// The second return is false when enrichment itself failed; the candidate
// is dropped without a ledger entry so a transient outage does not exclude
// the park from future runs.
func (p *Pipeline) evaluate(ctx context.Context, hit places.SearchHit, avoidConglomerates bool) (model.Candidate, bool) {
	c := model.Candidate{PlaceID: hit.PlaceID, Name: hit.Name}

	det, err := p.places.Details(ctx, hit.PlaceID)
	if err != nil {
		zap.L().Warn("pipeline: detail lookup failed, dropping candidate",
			zap.String("place_id", hit.PlaceID),
			zap.Error(err),
		)
		return c, false
	}

	if det.Name != "" {
		c.Name = det.Name
	}
	c.Website = model.SanitizeURL(det.Website)
	c.Phone = det.Phone()
	c.Address = det.FormattedAddress
	c.City, c.State, c.Zip = det.CityStateZip()

	if reason := preClassifyReject(c, avoidConglomerates); reason != rejectNone {
		zap.L().Debug("pipeline: candidate rejected before classification",
			zap.String("place_id", c.PlaceID),
			zap.String("name", c.Name),
			zap.String("reason", string(reason)),
		)
		return c, true
	}

	if c.Website != "" {
		verdict := p.classifier.Classify(ctx, c.Website)
		c.HasBooking = verdict.HasBooking
		c.BookingKeyword = verdict.Keyword
		c.PadCount = verdict.PadCount
	}
	return c, true
}
