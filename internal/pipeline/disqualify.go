package pipeline

import (
	"net/url"
	"strings"

	"github.com/momentum-leads/rvprospector/internal/model"
)

// otaHosts are third-party booking and aggregator platforms. A park whose
// "website" points at one of these has no site of its own worth classifying
// and is run by someone else's reservation stack.
var otaHosts = []string{
	"campspot.com",
	"resnexus.com",
	"rezstream.com",
	"reserveamerica.com",
	"recreation.gov",
	"koa.com",
	"booking.com",
	"hipcamp.com",
	"rvonthego.com",
}

// conglomerateKeywords match multi-location brands and holding groups by
// name or website substring. These never sell to a cold caller.
var conglomerateKeywords = []string{
	"koa.com", "kampgrounds of america", "koa ",
	"thousandtrails", "thousand trails", "encore rv", "encore rv resorts",
	"sunoutdoors", "sun outdoors", "equity lifestyle", "equity lifestyles",
	"els rv", "rvonthego.com", "rvc outdoors", "bluewater", "yogi bear",
	"jellystone", "disney fort wilderness",
}

// rejectReason explains why a candidate was dropped before classification.
type rejectReason string

const (
	rejectNone         rejectReason = ""
	rejectOTAHost      rejectReason = "ota_host"
	rejectConglomerate rejectReason = "conglomerate"
	rejectNoContact    rejectReason = "no_contact"
)

// preClassifyReject applies the cheap rejection rules that make fetching the
// website pointless.
func preClassifyReject(c model.Candidate, avoidConglomerates bool) rejectReason {
	if isOTAHost(c.Website) {
		return rejectOTAHost
	}
	if avoidConglomerates && isConglomerate(c.Name, c.Website) {
		return rejectConglomerate
	}
	if c.Phone == "" && c.Website == "" {
		return rejectNoContact
	}
	return rejectNone
}

func isOTAHost(website string) bool {
	if website == "" {
		return false
	}
	u, err := url.Parse(website)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, ota := range otaHosts {
		if host == ota || strings.HasSuffix(host, "."+ota) {
			return true
		}
	}
	return false
}

func isConglomerate(name, website string) bool {
	s := strings.ToLower(name) + " " + strings.ToLower(website)
	for _, k := range conglomerateKeywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
