// Package generic implements the generic reporting Policy from
// generic_blc.py: request/error/backoff logging to stdout, stats
// counters, and the crawl/report decision in HandleLinkResult — with
// product-specific overrides delegated to a policy.ProductHooks value
// rather than inherited, since Go has no subclassing.
package generic

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/policy"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// Stats are the run counters generic_blc.py's GenericChecker accumulates
// and prints in its Summary block.
type Stats struct {
	Requests   int
	Pages      int
	Errors     int
	LinksTotal int
	LinksBad   int
	SleepSecs  float64
}

// Policy is the generic reporting policy: GET/Processing/error/backoff
// lines to stdout, a domain-scoped crawl decision, and delegation of
// product-specific skip/ugly checks to Hooks.
type Policy struct {
	// Domain is the netloc new pages are crawled under
	// (urlparse(seed).netloc in generic_blc.py's main()).
	Domain string
	// Hooks supplies the product-specific extension points. A nil Hooks
	// behaves like GenericChecker itself: nothing is skipped, nothing is
	// flagged ugly, and IsInternalDomain falls back to Domain-equality
	// plus the telepresence.io special case generic_blc.py hard-codes.
	Hooks policy.ProductHooks
	// Enqueuer lets HandleLink/HandleLinkResult schedule further work.
	Enqueuer policy.Enqueuer
	// Print is where report lines are written; defaults to fmt.Println
	// semantics via os.Stdout when left nil by New.
	Print func(line string)

	Stats Stats
}

// New constructs a generic Policy for domain, wired to enqueuer, with an
// optional set of product hooks (pass nil for unmodified generic
// behavior).
func New(domain string, enqueuer policy.Enqueuer, hooks policy.ProductHooks) *Policy {
	return &Policy{
		Domain:   domain,
		Hooks:    hooks,
		Enqueuer: enqueuer,
		Print:    func(line string) { fmt.Println(line) },
	}
}

func (p *Policy) println(line string) {
	if p.Print != nil {
		p.Print(line)
		return
	}
	fmt.Println(line)
}

func (p *Policy) HandleRequestStarting(rawURL string) {
	if strings.HasPrefix(rawURL, "data:") {
		return
	}
	p.println(fmt.Sprintf("GET %s", urlref.Defragment(rawURL)))
	p.Stats.Requests++
}

func (p *Policy) HandlePageStarting(rawURL string) {
	p.Stats.Pages++
}

func (p *Policy) HandlePageError(rawURL string, reason string) {
	p.Stats.Errors++
	p.println(fmt.Sprintf("error: %s: %s", rawURL, reason))
}

func (p *Policy) HandleTimeout(rawURL string, err error) {
	p.HandlePageError(rawURL, err.Error())
}

func (p *Policy) HandleBackoff(rawURL string, secs int) {
	p.Stats.SleepSecs += float64(secs)
	p.println(fmt.Sprintf("backoff: %s: retrying after %d seconds", rawURL, secs))
}

func (p *Policy) HandleSleep(secs float64) {
	p.println(fmt.Sprintf("backoff: sleeping for %g seconds", secs))
}

// IsInternalDomain is GenericChecker's own is_internal_domain default:
// used when Hooks is nil, or as a fallback if a custom Hooks chooses to
// delegate back to it.
func (p *Policy) IsInternalDomain(netloc string) bool {
	if netloc == "telepresence.io" || strings.HasSuffix(netloc, ".telepresence.io") {
		return true
	}
	return netloc == p.Domain
}

func (p *Policy) shouldSkipLink(link model.Link) bool {
	if p.Hooks == nil {
		return false
	}
	return p.Hooks.ShouldSkipLink(link)
}

func (p *Policy) shouldSkipLinkResult(link model.Link, broken model.BrokenReason) bool {
	if p.Hooks == nil {
		return false
	}
	return p.Hooks.ShouldSkipLinkResult(link, broken)
}

func (p *Policy) uglyCheck(link model.Link) {
	if p.Hooks != nil {
		p.Hooks.UglyCheck(link)
	}
}

func (p *Policy) HandleLink(link model.Link) {
	if !p.shouldSkipLink(link) {
		p.Enqueuer.Enqueue(model.LinkTask{Link: link})
	}
}

func (p *Policy) HandleLinkResult(link model.Link, broken model.BrokenReason) {
	p.Stats.LinksTotal++
	if broken != "" {
		if !p.shouldSkipLinkResult(link, broken) {
			p.logBroken(link, broken)
		}
		return
	}
	p.uglyCheck(link)
	if p.linkNetloc(link) == p.Domain {
		p.Enqueuer.Enqueue(model.PageTask{URL: link.LinkURL})
	}
}

func (p *Policy) logBroken(link model.Link, reason model.BrokenReason) {
	p.Stats.LinksBad++
	p.println(fmt.Sprintf("Page %s has a broken link: %q (%s)", link.PageURL.MustResolved(), link.LinkURL.Ref(), reason))
}

// LogUgly records a non-broken-but-semantically-wrong link, for use by
// ProductHooks.UglyCheck implementations.
func (p *Policy) LogUgly(link model.Link, reason, suggestion string) {
	p.Stats.LinksBad++
	msg := fmt.Sprintf("Page %s has an ugly link: %q %s", link.PageURL.MustResolved(), link.LinkURL.Ref(), reason)
	if suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	p.println(msg)
}

func (p *Policy) linkNetloc(link model.Link) string {
	resolved, err := link.LinkURL.Resolved()
	if err != nil {
		return ""
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return ""
	}
	return u.Host
}

// Summary formats the "Summary:" report block generic_blc.py's main()
// prints after a run completes.
func (p *Policy) Summary() string {
	return fmt.Sprintf(
		"Summary:\n  Actions: Sent %d HTTP requests and slept for %g seconds in order to check %d links on %d pages\n  Results: Encountered %d errors and %d bad links",
		p.Stats.Requests, p.Stats.SleepSecs, p.Stats.LinksTotal, p.Stats.Pages, p.Stats.Errors, p.Stats.LinksBad,
	)
}

// ExitCode mirrors generic_blc.py's main(): 1 if anything went wrong,
// else 0.
func (p *Policy) ExitCode() int {
	if p.Stats.Errors+p.Stats.LinksBad > 0 {
		return 1
	}
	return 0
}
