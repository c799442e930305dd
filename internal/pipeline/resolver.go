package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/pkg/places"
)

// Origin is the resolved geographic starting point of a run: either a
// coordinate pair (near-me mode) or a free-text bias string.
type Origin struct {
	Bias   string
	LatLng *places.LatLng
}

// Description renders the origin for run records and progress output.
func (o Origin) Description() string {
	if o.LatLng != nil {
		return fmt.Sprintf("%.4f,%.4f", o.LatLng.Lat, o.LatLng.Lng)
	}
	return o.Bias
}

// resolveOrigin turns the caller's location input into a search origin.
// Near-me mode asks the IP geolocation cascade; when that fails the run
// degrades to a text bias rather than aborting, because an approximate
// search beats no search. The returned warning is empty unless a fallback
// happened.
func (p *Pipeline) resolveOrigin(ctx context.Context, location string, nearMe bool) (Origin, string) {
	if location == "" {
		location = p.cfg.DefaultLocation
	}

	if nearMe {
		loc, err := p.locator.Locate(ctx)
		if err != nil {
			zap.L().Warn("pipeline: ip geolocation failed, falling back to text bias",
				zap.String("bias", location),
				zap.Error(err),
			)
			return Origin{Bias: location},
				fmt.Sprintf("could not resolve location from IP, searching near %q instead", location)
		}
		return Origin{LatLng: &places.LatLng{Lat: loc.Lat, Lng: loc.Lng}}, ""
	}

	return Origin{Bias: location}, ""
}
