package classify

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Policy is the data-driven classification configuration: which substrings
// indicate an online booking system, which numeric patterns advertise pad
// capacity, and which subpages are worth fetching. Keeping it as data lets
// the heuristics be unit-tested without network access.
type Policy struct {
	// BookingKeywords are matched case-insensitively as substrings against
	// raw page markup. First match wins.
	BookingKeywords []string `yaml:"booking_keywords"`

	// PadPatterns are ordered regular expressions whose numeric capture
	// groups are capacity candidates.
	PadPatterns []string `yaml:"pad_patterns"`

	// MinPads/MaxPads bound the plausible capacity range. Numbers outside
	// the range are discarded even when the pattern matched.
	MinPads int `yaml:"min_pads"`
	MaxPads int `yaml:"max_pads"`

	// SubpageSlugs are the candidate paths tried under a site's base URL,
	// in order. The empty slug is the home page.
	SubpageSlugs []string `yaml:"subpage_slugs"`

	// SubpageLimit caps how many of the slugs are actually fetched.
	SubpageLimit int `yaml:"subpage_limit"`
}

// DefaultPolicy returns the built-in booking/capacity heuristics.
func DefaultPolicy() Policy {
	return Policy{
		BookingKeywords: []string{
			"campspot", "resnexus", "rezhub", "rezstream", "rmscloud", "rms bookings",
			"camplife", "book.now", "book-now", "bookonline", "reserveamerica",
			"koa.com", "booking.com", "siteminder", "fareharbor", "checkfront",
			"reserva", "book a site", "reserve a site", "book your stay", "reserve now",
		},
		PadPatterns: []string{
			`(\d{2,4})\s*(?:rv\s*)?(?:sites|pads|spaces|camp\s*sites|camp-sites|camp spaces)`,
			`(?:over|more than|up to)\s*(\d{2,4})\s*(?:rv\s*)?(?:sites|pads|spaces)`,
		},
		MinPads: 25,
		MaxPads: 2000,
		SubpageSlugs: []string{
			"", "rates", "amenities", "map", "campground-map",
			"site-map", "camping", "rv", "rv-sites", "rv-camping", "stay", "about",
		},
		SubpageLimit: 6,
	}
}

// LoadPolicy reads a YAML policy override from path. Fields left unset in
// the file keep their defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, eris.Wrap(err, "classify: read policy file")
	}

	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return p, eris.Wrap(err, "classify: parse policy file")
	}

	if len(override.BookingKeywords) > 0 {
		p.BookingKeywords = override.BookingKeywords
	}
	if len(override.PadPatterns) > 0 {
		p.PadPatterns = override.PadPatterns
	}
	if override.MinPads > 0 {
		p.MinPads = override.MinPads
	}
	if override.MaxPads > 0 {
		p.MaxPads = override.MaxPads
	}
	if len(override.SubpageSlugs) > 0 {
		p.SubpageSlugs = override.SubpageSlugs
	}
	if override.SubpageLimit > 0 {
		p.SubpageLimit = override.SubpageLimit
	}

	return p, nil
}

// compiled holds the policy with its regexes built once.
type compiled struct {
	bookingRe   *regexp.Regexp
	padPatterns []*regexp.Regexp
	minPads     int
	maxPads     int
}

func (p Policy) compile() (*compiled, error) {
	escaped := make([]string, len(p.BookingKeywords))
	for i, kw := range p.BookingKeywords {
		escaped[i] = regexp.QuoteMeta(kw)
	}
	bookingRe, err := regexp.Compile(`(?i)` + strings.Join(escaped, "|"))
	if err != nil {
		return nil, eris.Wrap(err, "classify: compile booking keywords")
	}

	pads := make([]*regexp.Regexp, 0, len(p.PadPatterns))
	for _, pat := range p.PadPatterns {
		re, err := regexp.Compile(`(?i)` + pat)
		if err != nil {
			return nil, eris.Wrapf(err, "classify: compile pad pattern %q", pat)
		}
		pads = append(pads, re)
	}

	return &compiled{
		bookingRe:   bookingRe,
		padPatterns: pads,
		minPads:     p.MinPads,
		maxPads:     p.MaxPads,
	}, nil
}
