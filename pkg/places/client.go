package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/momentum-leads/rvprospector/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// API status values. OK and ZERO_RESULTS are both successful outcomes;
// ZERO_RESULTS must stay distinguishable from a failed call.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// Client performs Google Places directory operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
	Details(ctx context.Context, placeID string) (*PlaceDetail, error)
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// TextSearchRequest describes one search call. Exactly one of LatLng or
// Bias positions the search; PageToken continues a prior page and makes the
// other fields irrelevant for that call.
type TextSearchRequest struct {
	Query        string
	Bias         string  // free-text location bias ("<query> near <bias>")
	LatLng       *LatLng // coordinate origin for near-me searches
	RadiusMeters int
	PageToken    string
}

// SearchHit is one raw search result: the opaque id plus a display name.
type SearchHit struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// TextSearchResponse is one page of search results.
type TextSearchResponse struct {
	Status        string      `json:"status"`
	Hits          []SearchHit `json:"results"`
	NextPageToken string      `json:"next_page_token"`
	ErrorMessage  string      `json:"error_message"`
}

// ZeroResults reports the distinguishable nothing-found outcome.
func (r *TextSearchResponse) ZeroResults() bool {
	return r.Status == StatusZeroResults
}

// AddressComponent is one typed part of a place's address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// PlaceDetail is the enrichment payload for one place id.
type PlaceDetail struct {
	Name               string             `json:"name"`
	Website            string             `json:"website"`
	FormattedPhone     string             `json:"formatted_phone_number"`
	InternationalPhone string             `json:"international_phone_number"`
	FormattedAddress   string             `json:"formatted_address"`
	AddressComponents  []AddressComponent `json:"address_components"`
}

// Phone returns the best available phone number.
func (d *PlaceDetail) Phone() string {
	if d.FormattedPhone != "" {
		return d.FormattedPhone
	}
	return d.InternationalPhone
}

// CityStateZip extracts locality, state code, and postal code from the
// address components.
func (d *PlaceDetail) CityStateZip() (city, state, zip string) {
	for _, comp := range d.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				city = comp.LongName
			case "administrative_area_level_1":
				state = comp.ShortName
			case "postal_code":
				zip = comp.LongName
			}
		}
	}
	return city, state, zip
}

const detailFields = "name,formatted_address,website,formatted_phone_number," +
	"address_components,international_phone_number"

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second against the API.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetryConfig overrides the transport retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

// WithCircuitBreakerConfig overrides the outage breaker policy.
func WithCircuitBreakerConfig(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *httpClient) { c.breaker = resilience.NewCircuitBreaker(cfg) }
}

// WithCacheTTLs overrides the read-through cache TTLs.
func WithCacheTTLs(search, detail time.Duration) Option {
	return func(c *httpClient) {
		c.searchTTL = search
		c.detailTTL = detail
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	searchTTL time.Duration
	detailTTL time.Duration

	searchCache *ttlCache[*TextSearchResponse]
	detailCache *ttlCache[*PlaceDetail]
}

// NewClient creates a Places client with read-through TTL caches. Identical
// requests (same key, query, location, radius, page token) within the TTL
// window return the cached response; the caches tolerate concurrent readers.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:   rate.NewLimiter(10, 1),
		retry:     resilience.DefaultRetryConfig(),
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		searchTTL: 10 * time.Minute,
		detailTTL: time.Hour,
	}
	for _, o := range opts {
		o(c)
	}
	c.searchCache = newTTLCache[*TextSearchResponse](512, c.searchTTL)
	c.detailCache = newTTLCache[*PlaceDetail](2048, c.detailTTL)
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	} else {
		query := req.Query
		switch {
		case req.LatLng != nil:
			params.Set("location", fmt.Sprintf("%f,%f", req.LatLng.Lat, req.LatLng.Lng))
			params.Set("radius", strconv.Itoa(req.RadiusMeters))
		case req.Bias != "":
			query = req.Query + " near " + req.Bias
		}
		params.Set("query", query)
	}

	cacheKey := "textsearch?" + params.Encode()
	if cached, ok := c.searchCache.Get(cacheKey); ok {
		return cached, nil
	}

	var resp TextSearchResponse
	if err := c.getJSON(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != StatusOK && resp.Status != StatusZeroResults {
		return nil, eris.Errorf("places: text search status %s: %s", resp.Status, resp.ErrorMessage)
	}

	c.searchCache.Add(cacheKey, &resp)
	return &resp, nil
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*PlaceDetail, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)

	cacheKey := "details?" + params.Encode()
	if cached, ok := c.detailCache.Get(cacheKey); ok {
		return cached, nil
	}

	var resp struct {
		Status       string      `json:"status"`
		ErrorMessage string      `json:"error_message"`
		Result       PlaceDetail `json:"result"`
	}
	if err := c.getJSON(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != StatusOK {
		return nil, eris.Errorf("places: details status %s for %s: %s", resp.Status, placeID, resp.ErrorMessage)
	}

	c.detailCache.Add(cacheKey, &resp.Result)
	return &resp.Result, nil
}

// getJSON performs a GET with rate limiting and the shared transport retry
// policy: transient failures (connect errors, 408/429/5xx) are retried with
// exponential backoff; other 4xx responses fail the call immediately. The
// whole retried call runs through a circuit breaker, so a sustained API
// outage rejects calls fast instead of spending the full retry budget on
// every candidate.
func (c *httpClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	fullURL := c.baseURL + path + "?" + params.Encode()

	body, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, fullURL)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}

func (c *httpClient) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "places: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "places: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "places: send request"), 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "places: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		return respBody, nil
	})
}
