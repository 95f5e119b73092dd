// Package policy defines the hook surface BaseChecker (internal/blc/checker)
// calls into, and the narrower ProductHooks surface a generic reporting
// policy delegates to for product-specific overrides.
//
// Grounded on blclib/checker.py's handle_* methods and generic_blc.py's
// product_* overridable hooks. Python expresses "generic policy, with
// product-specific overrides" via subclassing (AmbassadorChecker(GenericChecker)).
// Go has no subclassing, so this is composition instead: internal/policy/generic
// implements Policy and holds a ProductHooks value it delegates to; ambassador
// and telepresence each implement ProductHooks and are handed to
// generic.New, rather than inheriting from it.
package policy

import "github.com/cametumbling/blc/internal/blc/model"

// Enqueuer is the subset of checker.Checker a Policy needs in order to
// enqueue newly-discovered tasks. Defined here (rather than imported from
// the checker package) so policy implementations never need to import
// the package that calls them.
type Enqueuer interface {
	Enqueue(task model.Task)
}

// Policy is the hook surface BaseChecker calls into while running,
// mirroring blclib/checker.py's handle_* methods.
type Policy interface {
	// HandleRequestStarting is called before a non-cached network hit.
	HandleRequestStarting(url string)
	// HandlePageStarting is called when a page begins processing.
	HandlePageStarting(url string)
	// HandlePageError is called on a page-level fetch, parse, or
	// content-type error, and also (per spec.md §4.8) whenever a 429 or
	// 5xx is encountered fetching a link, not just a page.
	HandlePageError(url string, reason string)
	// HandleTimeout is called instead of HandlePageError when a page
	// fetch failed because the request timed out.
	HandleTimeout(url string, err error)
	// HandleBackoff is called when a host tells us to back off: a 429
	// with a numeric Retry-After, or a detected redirect loop.
	HandleBackoff(url string, secs int)
	// HandleSleep is called when the scheduler sleeps waiting for a
	// cooling-down host, with no other ready work available.
	HandleSleep(secs float64)
	// HandleLink is called for every link discovered on a page. The
	// default behavior (spec.md §4.7) is to enqueue it as a LinkTask;
	// a policy may skip it instead.
	HandleLink(link model.Link)
	// HandleLinkResult is called once a link's broken-ness has been
	// determined. broken is "" if the link is not broken.
	HandleLinkResult(link model.Link, broken model.BrokenReason)
}

// ProductHooks are the per-product extension points a generic reporting
// policy delegates to, mirroring generic_blc.py's product_should_skip_link,
// product_should_skip_link_result, product_ugly_check, and is_internal_domain.
type ProductHooks interface {
	// ShouldSkipLink reports whether a discovered link should never be
	// checked at all (product_should_skip_link).
	ShouldSkipLink(link model.Link) bool
	// ShouldSkipLinkResult reports whether a broken-link result should be
	// suppressed from reporting (product_should_skip_link_result) — e.g.
	// a known-flaky third-party host returning 5xx.
	ShouldSkipLinkResult(link model.Link, broken model.BrokenReason) bool
	// UglyCheck inspects a non-broken link for being "ugly": technically
	// reachable but semantically wrong (wrong canonical domain, mismatched
	// docs version, ...). It reports findings itself (e.g. via a logger)
	// rather than returning a value.
	UglyCheck(link model.Link)
	// IsInternalDomain reports whether netloc belongs to the product's own
	// site (used by UglyCheck implementations to classify a link).
	IsInternalDomain(netloc string) bool
}
