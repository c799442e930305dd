package classify

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Result is the classifier's verdict for one website. It is a heuristic over
// live page content at fetch time, not authoritative: downstream consumers
// treat capacity as "verify by phone".
type Result struct {
	// HasBooking is true when any page matched a booking keyword.
	HasBooking bool
	// Keyword is the literal substring that triggered the match, or empty.
	Keyword string
	// PadCount is the maximum in-range capacity found, zero when unknown.
	PadCount int
}

// Options tunes the classifier's fetch behavior.
type Options struct {
	// SiteBudget bounds total wall-clock time spent fetching subpages for
	// one site. Default: 18s.
	SiteBudget time.Duration
	// FetchTimeout is the per-subpage connect/read timeout. Default: 10s.
	FetchTimeout time.Duration
	// UserAgent for subpage requests.
	UserAgent string
	// MaxBodyBytes caps how much of each page is read. Default: 512 KiB.
	MaxBodyBytes int64
}

// Classifier inspects a park's website for booking systems and advertised
// pad capacity.
type Classifier struct {
	policy *compiled
	client *http.Client
	opts   Options
	slugs  []string
}

// New creates a Classifier from a policy. It returns an error when the
// policy's patterns do not compile.
func New(policy Policy, opts Options) (*Classifier, error) {
	cp, err := policy.compile()
	if err != nil {
		return nil, err
	}
	if opts.SiteBudget <= 0 {
		opts.SiteBudget = 18 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; rvprospector/1.0)"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 512 * 1024
	}
	return &Classifier{
		policy: cp,
		client: &http.Client{
			Timeout: opts.FetchTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		opts:  opts,
		slugs: candidateSlugs(policy),
	}, nil
}

// Classify fetches up to the subpage limit of likely pages under websiteURL
// and reports booking presence and the capacity estimate. An empty website
// yields a zero Result. Individual fetch failures skip that subpage; the
// wall-clock budget stops fetching but classification proceeds with whatever
// was collected.
func (c *Classifier) Classify(ctx context.Context, websiteURL string) Result {
	var res Result
	if websiteURL == "" {
		return res
	}

	log := zap.L().With(zap.String("website", websiteURL))
	deadline := time.Now().Add(c.opts.SiteBudget)

	for _, pageURL := range candidatePages(websiteURL, c.slugs) {
		if time.Now().After(deadline) {
			log.Debug("site fetch budget exceeded")
			break
		}
		if ctx.Err() != nil {
			break
		}

		markup, err := c.fetch(ctx, pageURL)
		if err != nil {
			log.Debug("subpage fetch skipped", zap.String("url", pageURL), zap.Error(err))
			continue
		}

		if res.Keyword == "" {
			if hit := c.policy.matchBooking(markup); hit != "" {
				res.HasBooking = true
				res.Keyword = hit
			}
		}
		if n := c.policy.extractPadCount(markup); n > res.PadCount {
			res.PadCount = n
		}

		// Both signals found: nothing left to learn from more pages.
		if res.HasBooking && res.PadCount > 0 {
			break
		}
	}

	return res
}

func (c *Classifier) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "classify: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "classify: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("classify: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "classify: read body")
	}
	if len(body) == 0 {
		return "", eris.New("classify: empty body")
	}
	return string(body), nil
}

// candidateSlugs trims the policy slug list to its subpage limit.
func candidateSlugs(p Policy) []string {
	limit := p.SubpageLimit
	if limit <= 0 || limit > len(p.SubpageSlugs) {
		limit = len(p.SubpageSlugs)
	}
	return p.SubpageSlugs[:limit]
}

// candidatePages resolves the slugs against the site's base URL, dropping
// duplicates while preserving order.
func candidatePages(base string, slugs []string) []string {
	base = strings.TrimRight(base, "/") + "/"
	seen := make(map[string]struct{}, len(slugs))
	pages := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		page := base
		if slug != "" {
			ref, err := url.Parse(slug)
			if err != nil {
				continue
			}
			bu, err := url.Parse(base)
			if err != nil {
				continue
			}
			page = bu.ResolveReference(ref).String()
		}
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		pages = append(pages, page)
	}
	return pages
}
