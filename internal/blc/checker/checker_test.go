package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cametumbling/blc/internal/blc/httpcache"
	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// recordingPolicy is a minimal policy.Policy that records hook calls for
// assertions, standing in for a real policy.generic.Policy in these
// orchestration-focused tests.
type recordingPolicy struct {
	requests     []string
	pagesStarted []string
	pageErrors   []string
	timeouts     []string
	backoffs     []int
	sleeps       []float64
	links        []model.Link
	results      []linkResult
	checker      *Checker
}

type linkResult struct {
	link   model.Link
	broken model.BrokenReason
}

func (p *recordingPolicy) HandleRequestStarting(url string) { p.requests = append(p.requests, url) }
func (p *recordingPolicy) HandlePageStarting(url string)    { p.pagesStarted = append(p.pagesStarted, url) }
func (p *recordingPolicy) HandlePageError(url string, reason string) {
	p.pageErrors = append(p.pageErrors, url+": "+reason)
}
func (p *recordingPolicy) HandleTimeout(url string, err error) { p.timeouts = append(p.timeouts, url) }
func (p *recordingPolicy) HandleBackoff(url string, secs int)  { p.backoffs = append(p.backoffs, secs) }
func (p *recordingPolicy) HandleSleep(secs float64)            { p.sleeps = append(p.sleeps, secs) }
func (p *recordingPolicy) HandleLink(link model.Link) {
	p.links = append(p.links, link)
	p.checker.Enqueue(model.LinkTask{Link: link})
}
func (p *recordingPolicy) HandleLinkResult(link model.Link, broken model.BrokenReason) {
	p.results = append(p.results, linkResult{link, broken})
}

func newTestChecker(t *testing.T) (*Checker, *recordingPolicy) {
	t.Helper()
	p := &recordingPolicy{}
	client := httpcache.New(httpcache.Config{BeforeSend: func(u string) { p.HandleRequestStarting(u) }})
	c := New(client, p, zerolog.Nop())
	p.checker = c
	return c, p
}

func TestCheckPage_OneBrokenLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/ok">o</a><a href="/bad">b</a>`))
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	server := httptest.NewServer(mux)
	defer server.Close()

	c, p := newTestChecker(t)
	c.Scheduler.EnqueuePage(urlref.New(server.URL + "/"))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(p.requests) != 3 {
		t.Errorf("requests = %v, want 3 GETs", p.requests)
	}
	if len(p.results) != 2 {
		t.Fatalf("results = %d, want 2", len(p.results))
	}
	var broken, ok int
	for _, r := range p.results {
		if r.broken != "" {
			broken++
			if r.broken != "HTTP_404" {
				t.Errorf("broken reason = %q, want HTTP_404", r.broken)
			}
		} else {
			ok++
		}
	}
	if broken != 1 || ok != 1 {
		t.Errorf("broken=%d ok=%d, want 1 and 1", broken, ok)
	}
}

func TestCheckPage_UnknownContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("binary"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, p := newTestChecker(t)
	c.Scheduler.EnqueuePage(urlref.New(server.URL + "/"))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(p.pageErrors) != 1 {
		t.Fatalf("pageErrors = %v, want 1 entry", p.pageErrors)
	}
}

func TestCheckPage_FetchFailureReportsPageError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	server := httptest.NewServer(mux)
	defer server.Close()

	c, p := newTestChecker(t)
	c.Scheduler.EnqueuePage(urlref.New(server.URL + "/missing"))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(p.pagesStarted) != 1 {
		t.Errorf("pagesStarted = %v, want 1", p.pagesStarted)
	}
	if len(p.pageErrors) != 1 {
		t.Errorf("pageErrors = %v, want 1", p.pageErrors)
	}
}

func TestCheckLink_BrokenFragmentReasonIsSinglyPrefixed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/p#y">a</a>`))
	})
	mux.HandleFunc("/p", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<h1 id="x">h</h1>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, p := newTestChecker(t)
	c.Scheduler.EnqueuePage(urlref.New(server.URL + "/"))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(p.results) != 1 {
		t.Fatalf("results = %d, want 1", len(p.results))
	}
	want := model.BrokenReason("fragment: no element with that id/name=y")
	if p.results[0].broken != want {
		t.Errorf("broken reason = %q, want %q", p.results[0].broken, want)
	}
}

func TestCheckPage_AlreadyDoneIsSkipped(t *testing.T) {
	mux := http.NewServeMux()
	hits := 0
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, _ := newTestChecker(t)
	c.Scheduler.MarkPageDone(server.URL + "/")
	c.Scheduler.EnqueuePage(urlref.New(server.URL + "/"))
	// EnqueuePage drops a page that is already marked done, so the queue
	// stays empty and Run must finish without fetching it.
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if hits != 0 {
		t.Errorf("page fetched %d times, want 0 (already marked done before enqueue should prevent even queueing)", hits)
	}
}
