// Package model holds the value types shared across the checker: the
// element/link/response data model and the task union the scheduler runs.
package model

import (
	"fmt"
	"net/http"

	"github.com/cametumbling/blc/internal/blc/urlref"
)

// ElementRef describes the HTML element that carried a link reference. It
// is nil on a Link that came from a response header, a stylesheet, or a
// JS sourcemap comment.
type ElementRef struct {
	Tag   string
	Attr  string
	Rel   []string
	Text  string
}

// Link is a single link reference discovered on a page: the URL it points
// at, the page it was found on, and (when applicable) the HTML element
// that carried it.
type Link struct {
	LinkURL urlref.URLRef
	PageURL urlref.URLRef
	HTML    *ElementRef
}

// Response is the result of fetching a URL.
type Response struct {
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        string
	History     []string
	Headers     map[string][]string
}

// Header returns the first value of the named header, or "" if absent.
// Header names are matched case-insensitively per net/http convention.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	vals := r.Headers[http.CanonicalHeaderKey(name)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// HeaderValues returns all values of the named header.
func (r *Response) HeaderValues(name string) []string {
	if r == nil || r.Headers == nil {
		return nil
	}
	return r.Headers[http.CanonicalHeaderKey(name)]
}

// BrokenReason is why a link or page was unreachable, per spec.md §4.8:
// "HTTP_<code>" for any status other than 200, "HTTP_TIMEOUT" for a
// timeout, "fragment: " followed by FragmentValidator's error, or a
// stringified error
// for anything else (HTML parse failures, network errors, ...).
type BrokenReason string

// HTTPStatusReason formats the "HTTP_<code>" broken reason for a given
// status code.
func HTTPStatusReason(code int) BrokenReason {
	return BrokenReason(fmt.Sprintf("HTTP_%d", code))
}

// HTTPTimeoutReason is the broken reason for a request that timed out.
const HTTPTimeoutReason BrokenReason = "HTTP_TIMEOUT"

// Task is the tagged union the scheduler queues: either a PageTask (walk a
// page for links) or a LinkTask (verify a single link).
type Task interface {
	isTask()
}

// PageTask asks the checker to fetch a page, extract its links, and
// enqueue them.
type PageTask struct {
	URL urlref.URLRef
}

func (PageTask) isTask() {}

// LinkTask asks the checker to verify whether a single link is broken.
type LinkTask struct {
	Link Link
}

func (LinkTask) isTask() {}
