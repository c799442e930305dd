package iplocate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when every provider failed. Callers fall back
// to a text location bias; this is a warning-level condition, not fatal.
var ErrUnavailable = eris.New("iplocate: location unavailable")

// Location is an approximate IP-derived coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// Provider is a single IP-geolocation backend.
type Provider interface {
	Name() string
	Locate(ctx context.Context) (*Location, error)
}

// Client resolves the caller's approximate location.
type Client interface {
	Locate(ctx context.Context) (*Location, error)
}

// Cascade tries providers in order until one succeeds. No retries beyond
// the provider fallback; each provider call carries its own short timeout.
type Cascade struct {
	providers []Provider
}

// NewCascade creates a Cascade over the given providers. With none given it
// uses the default ipapi.co then ipinfo.io chain.
func NewCascade(providers ...Provider) *Cascade {
	if len(providers) == 0 {
		providers = []Provider{NewIPAPIProvider(""), NewIPInfoProvider("")}
	}
	return &Cascade{providers: providers}
}

// Locate implements Client.
func (c *Cascade) Locate(ctx context.Context) (*Location, error) {
	for _, p := range c.providers {
		loc, err := p.Locate(ctx)
		if err != nil {
			zap.L().Debug("iplocate: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		return loc, nil
	}
	return nil, ErrUnavailable
}

const providerTimeout = 5 * time.Second

func newProviderClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}

// IPAPIProvider resolves location via ipapi.co (no key required).
type IPAPIProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPIProvider creates the ipapi.co provider. An empty baseURL uses the
// public endpoint.
func NewIPAPIProvider(baseURL string) *IPAPIProvider {
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}
	return &IPAPIProvider{baseURL: baseURL, client: newProviderClient()}
}

// Name implements Provider.
func (p *IPAPIProvider) Name() string { return "ipapi" }

// Locate implements Provider.
func (p *IPAPIProvider) Locate(ctx context.Context) (*Location, error) {
	var payload struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := getJSON(ctx, p.client, p.baseURL+"/json", &payload); err != nil {
		return nil, err
	}
	if payload.Latitude == 0 && payload.Longitude == 0 {
		return nil, eris.New("ipapi: empty coordinates")
	}
	return &Location{Lat: payload.Latitude, Lng: payload.Longitude}, nil
}

// IPInfoProvider resolves location via ipinfo.io, which encodes the
// coordinates as a "lat,lng" string.
type IPInfoProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPInfoProvider creates the ipinfo.io provider. An empty baseURL uses
// the public endpoint.
func NewIPInfoProvider(baseURL string) *IPInfoProvider {
	if baseURL == "" {
		baseURL = "https://ipinfo.io"
	}
	return &IPInfoProvider{baseURL: baseURL, client: newProviderClient()}
}

// Name implements Provider.
func (p *IPInfoProvider) Name() string { return "ipinfo" }

// Locate implements Provider.
func (p *IPInfoProvider) Locate(ctx context.Context) (*Location, error) {
	var payload struct {
		Loc string `json:"loc"`
	}
	if err := getJSON(ctx, p.client, p.baseURL+"/json", &payload); err != nil {
		return nil, err
	}

	parts := strings.SplitN(payload.Loc, ",", 2)
	if len(parts) != 2 {
		return nil, eris.Errorf("ipinfo: malformed loc %q", payload.Loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, eris.Wrap(err, "ipinfo: parse latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, eris.Wrap(err, "ipinfo: parse longitude")
	}
	return &Location{Lat: lat, Lng: lng}, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "iplocate: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "iplocate: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("iplocate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return eris.Wrap(err, "iplocate: read response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "iplocate: unmarshal response")
	}
	return nil
}
