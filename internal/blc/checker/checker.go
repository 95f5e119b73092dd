// Package checker implements BaseChecker: the orchestration engine that
// drives a page/link crawl by pulling tasks from a scheduler.Scheduler,
// fetching them through an httpcache.Client, extracting further links
// with internal/blc/extract, and reporting through a policy.Policy.
//
// Grounded on blclib/checker.py's BaseChecker (_check_page, _check_link,
// _process_html, _get_resp), redesigned per spec.md §9 and SPEC_FULL.md
// §4.7/§5: RetryAfter is a typed result the scheduler alone interprets,
// and the whole engine runs on a single goroutine (Checker.Run), matching
// the teacher's "coordinator owns all shared state" shape without its
// worker-pool parallelism.
package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cametumbling/blc/internal/blc/fragment"
	"github.com/cametumbling/blc/internal/blc/httpcache"
	"github.com/cametumbling/blc/internal/blc/extract"
	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/policy"
	"github.com/cametumbling/blc/internal/blc/scheduler"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// Checker is BaseChecker: it owns the fetch client, the scheduler, and a
// Policy to report through, and drives the crawl to completion.
type Checker struct {
	Client    *httpcache.Client
	Scheduler *scheduler.Scheduler
	Policy    policy.Policy
	Logger    zerolog.Logger
}

// New wires a Checker's scheduler hooks to the given policy and returns
// it. The caller is responsible for constructing Client with
// Config.BeforeSend set to policy.HandleRequestStarting, since that hook
// fires at the HTTP layer (spec.md §9) rather than here.
func New(client *httpcache.Client, p policy.Policy, logger zerolog.Logger) *Checker {
	c := &Checker{Client: client, Policy: p, Logger: logger}
	c.Scheduler = scheduler.New(scheduler.Hooks{
		Handle429: func(rae *httpcache.RetryAfterError) {
			p.HandleBackoff(rae.URL, rae.Seconds)
		},
		HandleSleep: p.HandleSleep,
	})
	return c
}

// Enqueue implements policy.Enqueuer, letting a Policy (or its
// ProductHooks) schedule further work.
func (c *Checker) Enqueue(task model.Task) {
	switch t := task.(type) {
	case model.PageTask:
		c.Scheduler.EnqueuePage(t.URL)
	case model.LinkTask:
		c.Scheduler.EnqueueLink(t.Link)
	}
}

// Run drains the scheduler until the queue is empty or ctx is canceled.
func (c *Checker) Run(ctx context.Context) error {
	return c.Scheduler.Run(ctx, c.runTask)
}

func (c *Checker) runTask(ctx context.Context, task model.Task) error {
	switch t := task.(type) {
	case model.PageTask:
		return c.checkPage(ctx, t.URL)
	case model.LinkTask:
		return c.checkLink(ctx, t.Link)
	default:
		return fmt.Errorf("checker: unknown task type %T", task)
	}
}

// getResp fetches rawURL and classifies the outcome per spec.md §4.8.
// err is non-nil only for a *httpcache.RetryAfterError (callers must
// propagate it unchanged to the scheduler via errors.As); any other
// failure — timeout, non-200 status, network error — comes back as a
// non-empty reason instead.
func (c *Checker) getResp(ctx context.Context, rawURL string) (resp *model.Response, reason model.BrokenReason, err error) {
	resp, fetchErr := c.Client.Get(ctx, rawURL)
	if fetchErr != nil {
		var rae *httpcache.RetryAfterError
		if errors.As(fetchErr, &rae) {
			return nil, "", fetchErr
		}
		if isTimeout(fetchErr) {
			return nil, model.HTTPTimeoutReason, nil
		}
		return nil, model.BrokenReason(fetchErr.Error()), nil
	}
	if resp.StatusCode != 200 {
		return nil, model.HTTPStatusReason(resp.StatusCode), nil
	}
	return resp, "", nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// isBackoffReason reports whether a broken reason is a 429 or 5xx status,
// which per spec.md §4.8 additionally invoke HandlePageError even when
// encountered while checking a link rather than a page.
func isBackoffReason(reason model.BrokenReason) bool {
	s := string(reason)
	if s == "HTTP_429" {
		return true
	}
	return strings.HasPrefix(s, "HTTP_5")
}

func (c *Checker) checkPage(ctx context.Context, pageURL urlref.URLRef) error {
	startURL, err := pageURL.Resolved()
	if err != nil {
		c.Logger.Warn().Err(err).Str("ref", pageURL.Ref()).Msg("dropping unresolvable page reference")
		return nil
	}

	resp, reason, err := c.getResp(ctx, startURL)
	if err != nil {
		return err
	}
	if reason != "" {
		cleanURL := urlref.Defragment(startURL)
		c.Scheduler.MarkPageDone(cleanURL)
		c.Policy.HandlePageStarting(cleanURL)
		if reason == model.HTTPTimeoutReason {
			c.Policy.HandleTimeout(cleanURL, errors.New(string(reason)))
		} else {
			c.Policy.HandlePageError(cleanURL, string(reason))
		}
		return nil
	}

	finalURL := pageURL.Replace(urlref.WithResolved(resp.FinalURL))
	cleanURL := urlref.Defragment(resp.FinalURL)

	if c.Scheduler.PageDone(cleanURL) {
		return nil
	}
	for _, hop := range resp.History {
		c.Scheduler.MarkPageDone(hop)
	}
	c.Scheduler.MarkPageDone(resp.FinalURL)
	c.Policy.HandlePageStarting(cleanURL)

	for _, link := range extract.Headers(finalURL, resp) {
		c.Policy.HandleLink(link)
	}

	switch extract.ContentType(resp.ContentType) {
	case "text/html":
		links, err := extract.HTML(finalURL, resp.Body)
		if err != nil {
			c.Policy.HandlePageError(cleanURL, err.Error())
			return nil
		}
		for _, link := range links {
			c.Policy.HandleLink(link)
		}
		styleLinks, err := extract.InlineStyles(finalURL, resp.Body)
		if err != nil {
			c.Policy.HandlePageError(cleanURL, err.Error())
		}
		for _, link := range styleLinks {
			c.Policy.HandleLink(link)
		}
	case "text/css":
		links, err := extract.CSS(finalURL, resp.Body)
		if err != nil {
			c.Policy.HandlePageError(cleanURL, err.Error())
			return nil
		}
		for _, link := range links {
			c.Policy.HandleLink(link)
		}
	case "application/javascript":
		for _, link := range extract.JS(finalURL, resp.Body) {
			c.Policy.HandleLink(link)
		}
	case "application/json", "application/manifest+json", "application/x-yaml",
		"image/jpeg", "image/png", "image/svg+xml", "application/pdf":
		// Recognized non-linkable content types: nothing to extract.
	default:
		c.Policy.HandlePageError(cleanURL, fmt.Sprintf("unknown Content-Type: %s", resp.ContentType))
	}
	return nil
}

func (c *Checker) checkLink(ctx context.Context, link model.Link) error {
	target, err := link.LinkURL.Resolved()
	if err != nil {
		c.Policy.HandleLinkResult(link, model.BrokenReason(err.Error()))
		return nil
	}

	resp, reason, err := c.getResp(ctx, target)
	if err != nil {
		return err
	}
	if reason != "" {
		if isBackoffReason(reason) {
			c.Policy.HandlePageError(target, string(reason))
		}
		c.Policy.HandleLinkResult(link, reason)
		return nil
	}

	link.LinkURL = link.LinkURL.Replace(urlref.WithResolved(resp.FinalURL))

	if frag := urlref.Fragment(resp.FinalURL); frag != "" {
		cleanURL := urlref.Defragment(resp.FinalURL)
		if err := fragment.Validate(ctx, c.Client, cleanURL, frag); err != nil {
			c.Policy.HandleLinkResult(link, model.BrokenReason("fragment: "+err.Error()))
			return nil
		}
	}

	c.Policy.HandleLinkResult(link, "")
	return nil
}
