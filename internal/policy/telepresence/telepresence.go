// Package telepresence implements the telepresence.io product policy:
// in-cluster-hostname skip list and a dual-canonical-domain ugly check.
//
// Grounded on telepresenceio_blc.py's TelepresenceChecker.
package telepresence

import (
	"net/url"
	"strings"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/policy/generic"
)

var canonicalDomains = map[string]bool{
	"www.getambassador.io": true,
	"www.telepresence.io":  true,
}

// Hooks implements policy.ProductHooks for telepresence.io.
type Hooks struct {
	// Domain is the checker's own seed domain.
	Domain string
	// Reporter is used by UglyCheck to print ugly-link findings.
	Reporter *generic.Policy
}

func (h Hooks) IsInternalDomain(netloc string) bool {
	if netloc == "telepresence.io" || strings.HasSuffix(netloc, ".telepresence.io") {
		return true
	}
	return netloc == h.Domain
}

// ShouldSkipLink drops links into in-cluster-only hostnames that are
// never reachable from outside the demo cluster, per
// telepresenceio_blc.py's product_should_skip_link.
func (h Hooks) ShouldSkipLink(link model.Link) bool {
	resolved, err := link.LinkURL.Resolved()
	if err != nil {
		return false
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	hostname := u.Hostname()
	netloc := u.Host
	if hostname == "" || netloc == "" {
		return false
	}
	return strings.HasSuffix(hostname, ".default") ||
		netloc == "localhost:8080" ||
		hostname == "verylargejavaservice" ||
		hostname == "web-app.emojivoto"
}

func (h Hooks) ShouldSkipLinkResult(link model.Link, broken model.BrokenReason) bool {
	return false
}

func (h Hooks) UglyCheck(link model.Link) {
	ref, err := url.Parse(link.LinkURL.Ref())
	if err != nil {
		return
	}
	switch {
	case link.HTML != nil && link.HTML.Tag == "link" && hasRel(link.HTML, "canonical"):
		if !canonicalDomains[ref.Host] {
			resolved, _ := url.Parse(link.LinkURL.MustResolved())
			resolved.Scheme = "https"
			resolved.Host = "www.telepresence.io"
			h.Reporter.LogUgly(link, "is a canonical but does not point at www.getambassador.io or www.telepresence.io", resolved.String())
		}
	case h.IsInternalDomain(ref.Host):
		resolved, _ := url.Parse(link.LinkURL.MustResolved())
		resolved.Scheme = ""
		resolved.Host = ""
		h.Reporter.LogUgly(link, "is an internal link but has a domain", resolved.String())
	}
}

func hasRel(ref *model.ElementRef, rel string) bool {
	for _, r := range ref.Rel {
		if r == rel {
			return true
		}
	}
	return false
}
