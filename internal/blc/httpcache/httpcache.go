// Package httpcache implements HTTPCache: a GET-deduplicating HTTP client
// with 429→RetryAfter translation and conditional redirect caching.
//
// Grounded on blclib/httpcache.py + blclib/checker.py's HTTPClient subclass
// (the hook_before_send / hook_before_sleep overrides), redesigned per
// spec.md §9: RetryAfter is a typed result rather than a thrown exception
// that has to propagate through unrelated code, and the data: scheme is
// wired in via a scheme-registry RoundTripper (internal/blc/datauri)
// instead of monkey-patching an adapter onto a requests.Session lookalike.
package httpcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cametumbling/blc/internal/blc/datauri"
	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// MaxRedirects bounds the number of hops Get will follow before giving up.
const MaxRedirects = 10

// RetryAfterError is returned by Get instead of a response when a host
// asks us to back off: either an explicit 429 with a numeric Retry-After,
// or a detected redirect loop (whose canonical "cool down for a while"
// encoding is RetryAfterError{Seconds: 60}, matching blclib/checker.py's
// treatment of a self-redirect).
//
// It is never a link error (spec.md §4.8); it is purely a scheduling
// signal the Scheduler catches with errors.As.
type RetryAfterError struct {
	URL     string
	Seconds int
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %d seconds: %s", e.Seconds, e.URL)
}

// DiskCache is the persistence seam for a disk-backed second cache tier
// (see internal/blc/httpcache/diskcache). Optional; a nil DiskCache means
// the in-memory tier is the only one.
type DiskCache interface {
	Get(key string) (*model.Response, bool)
	Put(key string, resp *model.Response)
}

// Config configures a Client.
type Config struct {
	// Timeout is the per-request timeout (spec.md §5 default 10s).
	Timeout time.Duration
	// UserAgent is sent on every non-cached request unless overridden by
	// PerHostUserAgent.
	UserAgent string
	// PerHostUserAgent overrides UserAgent for specific hosts.
	PerHostUserAgent map[string]string
	// RateLimit, if positive, is the minimum interval between non-cached
	// network hits, enforced with golang.org/x/time/rate. This is a
	// steady-state pacer, independent of (and in addition to) the
	// RetryAfter backoff the Scheduler owns — see SPEC_FULL.md §4.2.
	RateLimit time.Duration
	// Disk is an optional persistent cache tier.
	Disk DiskCache
	// BeforeSend, if set, is called exactly once per network hit (cache
	// hits do not invoke it), before the request is sent.
	BeforeSend func(url string)
	// Transport overrides the underlying RoundTripper used for non-data:
	// URLs. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client is a GET-deduplicating HTTP client. It is not safe for concurrent
// use; per spec.md §5 the checker is single-threaded cooperative.
type Client struct {
	cfg     Config
	cache   map[string]*model.Response
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	}

	return &Client{
		cfg:   cfg,
		cache: make(map[string]*model.Response),
		client: &http.Client{
			// Redirects are followed by hand, one hop at a time, so each
			// hop can be independently cached per the conditional
			// predicate below.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &schemeTransport{inner: transport},
		},
		limiter: limiter,
	}
}

// schemeTransport dispatches "data:" URLs to datauri.Transport and
// everything else to inner.
type schemeTransport struct {
	inner http.RoundTripper
}

func (t *schemeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "data" {
		return (datauri.Transport{}).RoundTrip(req)
	}
	return t.inner.RoundTrip(req)
}

func cacheKey(rawURL string) string {
	return "GET " + urlref.Defragment(rawURL)
}

// Get fetches rawURL, following redirects, and returns the final response.
// See the package doc and spec.md §4.2 for the caching and backoff
// contract.
func (c *Client) Get(ctx context.Context, rawURL string) (*model.Response, error) {
	current := rawURL
	var history []string

	for hop := 0; ; hop++ {
		if hop > MaxRedirects {
			return nil, fmt.Errorf("too many redirects starting at %s", rawURL)
		}

		resp, cached, err := c.doHop(ctx, current)
		if err != nil {
			return nil, err
		}

		if isRetryAfterStatus(resp.StatusCode) {
			secs, ok := retryAfterSeconds(resp)
			if ok {
				return nil, &RetryAfterError{URL: current, Seconds: secs}
			}
		}

		if isRedirectStatus(resp.StatusCode) {
			loc := resp.Header("Location")
			next, err := resolveLocation(current, loc)
			if err != nil {
				return nil, fmt.Errorf("bad redirect Location from %s: %w", current, err)
			}
			if next == current {
				return nil, &RetryAfterError{URL: current, Seconds: 60}
			}

			if !cached && shouldCacheRedirect(current, resp.StatusCode) {
				c.store(current, resp)
			}

			history = append(history, current)
			current = next
			continue
		}

		if !cached {
			c.store(current, resp)
		}

		final := *resp
		final.FinalURL = current
		final.History = append([]string(nil), history...)
		return &final, nil
	}
}

// doHop performs (or replays from cache) a single GET against url, with no
// redirect-following of its own.
func (c *Client) doHop(ctx context.Context, rawURL string) (resp *model.Response, fromCache bool, err error) {
	key := cacheKey(rawURL)

	if hit, ok := c.cache[key]; ok {
		return deepCopy(hit), true, nil
	}
	if c.cfg.Disk != nil {
		if hit, ok := c.cfg.Disk.Get(key); ok {
			c.cache[key] = deepCopy(hit)
			return deepCopy(hit), true, nil
		}
	}

	if c.cfg.BeforeSend != nil {
		c.cfg.BeforeSend(rawURL)
	}

	if c.limiter != nil && !strings.HasPrefix(rawURL, "data:") {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	reqCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent(rawURL))

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading response body from %s: %w", rawURL, err)
	}

	headers := make(map[string][]string, len(httpResp.Header))
	for k, v := range httpResp.Header {
		headers[k] = append([]string(nil), v...)
	}

	resp = &model.Response{
		FinalURL:    rawURL,
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        string(body),
		Headers:     headers,
	}
	return resp, false, nil
}

func (c *Client) userAgent(rawURL string) string {
	if c.cfg.PerHostUserAgent != nil {
		if ua, ok := c.cfg.PerHostUserAgent[urlref.Hostname(rawURL)]; ok {
			return ua
		}
	}
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	return "github.com/datawire/getambassador.io-blc2"
}

func (c *Client) store(rawURL string, resp *model.Response) {
	key := cacheKey(rawURL)
	entry := deepCopy(resp)
	c.cache[key] = entry
	if c.cfg.Disk != nil {
		c.cfg.Disk.Put(key, entry)
	}
}

func deepCopy(r *model.Response) *model.Response {
	out := *r
	out.History = append([]string(nil), r.History...)
	out.Headers = make(map[string][]string, len(r.Headers))
	for k, v := range r.Headers {
		out.Headers[k] = append([]string(nil), v...)
	}
	return &out
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isRetryAfterStatus(code int) bool {
	return code == http.StatusTooManyRequests
}

func retryAfterSeconds(resp *model.Response) (int, bool) {
	raw := resp.Header("Retry-After")
	if raw == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}

// shouldCacheRedirect implements the conditional redirect-caching
// predicate from spec.md §4.2 exactly: cache a redirect response iff it is
// not a redirect-response (never reached here; this helper is only called
// for redirects) OR the URL contains "//localhost" OR the original URL had
// no query string. spec.md §9 explicitly calls out that this predicate is
// subtle and should be preserved, not simplified.
func shouldCacheRedirect(rawURL string, statusCode int) bool {
	if !isRedirectStatus(statusCode) {
		return true
	}
	if strings.Contains(rawURL, "//localhost") {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	return parsed.RawQuery == ""
}
