// Package ambassador implements the getambassador.io product policy:
// canonical-domain and cross-docs-version ugly checks, plus a skip list
// for known-noisy broken-link results.
//
// Grounded on getambassadorio_blc.py's AmbassadorChecker.
package ambassador

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/policy/generic"
)

const canonicalDomain = "www.getambassador.io"

var http5xx = regexp.MustCompile(`^HTTP_5[0-9]{2}$`)

// Hooks implements policy.ProductHooks for getambassador.io.
type Hooks struct {
	// Domain is the checker's own seed domain (generic.Policy.Domain),
	// needed here because IsInternalDomain also treats it as internal.
	Domain string
	// Reporter is used by UglyCheck to print ugly-link findings; normally
	// the same *generic.Policy the Hooks were handed to.
	Reporter *generic.Policy
}

func (h Hooks) IsInternalDomain(netloc string) bool {
	switch netloc {
	case "blog.getambassador.io":
		return false
	case "getambassador.io":
		return true
	}
	if strings.HasSuffix(netloc, ".getambassador.io") {
		return true
	}
	return netloc == h.Domain
}

func (h Hooks) ShouldSkipLink(link model.Link) bool {
	ref := link.LinkURL.Ref()
	return ref == "https://blog.getambassador.io/search?q=canary" ||
		ref == "https://app.datadoghq.com/apm/traces"
}

func (h Hooks) ShouldSkipLinkResult(link model.Link, broken model.BrokenReason) bool {
	reason := string(broken)
	if http5xx.MatchString(reason) {
		return true
	}
	// broken can be the error from a failed LinkURL.Resolved() itself (an
	// unparseable href), in which case there is no resolved form to check
	// against below.
	resolved, err := link.LinkURL.Resolved()
	if err != nil {
		return false
	}
	if reason == "HTTP_204" && (strings.HasPrefix(resolved, "https://www.youtube.com/") || strings.HasPrefix(resolved, "https://youtu.be/")) {
		return true
	}
	if reason == "HTTP_999" && strings.HasPrefix(resolved, "https://www.linkedin.com/") {
		return true
	}
	if link.HTML != nil && link.HTML.Tag == "link" && link.HTML.Attr == "href" && hasRel(link.HTML, "canonical") {
		if urlPath(resolved) == urlPath(link.PageURL.MustResolved()) {
			return true
		}
	}
	return false
}

func (h Hooks) UglyCheck(link model.Link) {
	ref, err := url.Parse(link.LinkURL.Ref())
	if err != nil {
		return
	}
	switch {
	case link.HTML != nil && link.HTML.Tag == "link" && hasRel(link.HTML, "canonical"):
		if ref.Host != canonicalDomain {
			resolved, _ := url.Parse(link.LinkURL.MustResolved())
			resolved.Scheme = "https"
			resolved.Host = canonicalDomain
			h.Reporter.LogUgly(link, "is a canonical but does not point at "+canonicalDomain, resolved.String())
		}
	case h.IsInternalDomain(ref.Host):
		resolved, _ := url.Parse(link.LinkURL.MustResolved())
		resolved.Scheme = ""
		resolved.Host = ""
		h.Reporter.LogUgly(link, "is an internal link but has a domain", resolved.String())
	case ref.Host == "":
		srcVer, srcIsDoc := docVersion(link.PageURL.MustResolved())
		dstVer, dstIsDoc := docVersion(link.LinkURL.MustResolved())
		if srcIsDoc && dstIsDoc && srcVer != dstVer {
			h.Reporter.LogUgly(link, fmt.Sprintf("is a link from docs version=%s to docs version=%s", srcVer, dstVer), "")
		}
	}
}

// docVersion returns the docs version segment of a /docs/<version>/...
// path, mirroring getambassadorio_blc.py's is_doc_url.
func docVersion(rawURL string) (version string, isDoc bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(u.Path, "/docs/") && u.Path != "/docs" {
		return "", false
	}
	parts := strings.SplitN(u.Path, "/", 4)
	if len(parts) >= 3 && parts[2] != "" {
		return parts[2], true
	}
	return "latest", true
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

func hasRel(ref *model.ElementRef, rel string) bool {
	for _, r := range ref.Rel {
		if r == rel {
			return true
		}
	}
	return false
}
