// Package scheduler implements the Scheduler from spec.md §4.6: a FIFO
// task queue with per-host cooldown deadlines and reschedule-on-backoff.
//
// Grounded on blclib/checker.py's run loop (the try/except RetryAfter
// branch and the "is some other host ready" reschedule check), and on
// the teacher's Coordinator in shape only — see SPEC_FULL.md §5 for why
// this scheduler is a single-goroutine list walk rather than a worker
// pool: the host-cooldown reschedule rule and the at-most-one-fetch
// invariant need one queue mutated by one actor.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/cametumbling/blc/internal/blc/httpcache"
	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
)

// Clock abstracts wallclock time so tests can run without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// realClock is the default Clock, backed by the time package.
type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Runner executes a single task. It returns a *httpcache.RetryAfterError
// (via errors.As) when the task's host asked for backoff; any other
// error is a task-processing failure the Scheduler does not interpret.
type Runner func(ctx context.Context, task model.Task) error

// Hooks are the scheduler-level policy callbacks from spec.md §4.7.
type Hooks struct {
	Handle429   func(retryAfter *httpcache.RetryAfterError)
	HandleSleep func(secs float64)
}

// Scheduler owns the FIFO task queue, the queued/done page sets, and the
// per-host cooldown deadlines.
type Scheduler struct {
	clock Clock
	hooks Hooks

	queue       []model.Task
	queuedPages map[string]bool
	donePages   map[string]bool
	notBefore   map[string]time.Time
}

// New creates an empty Scheduler. hooks may be the zero value; nil
// callbacks are no-ops.
func New(hooks Hooks) *Scheduler {
	return &Scheduler{
		clock:       realClock{},
		hooks:       hooks,
		queuedPages: make(map[string]bool),
		donePages:   make(map[string]bool),
		notBefore:   make(map[string]time.Time),
	}
}

// WithClock overrides the scheduler's clock; used in tests.
func (s *Scheduler) WithClock(c Clock) *Scheduler {
	s.clock = c
	return s
}

// EnqueuePage enqueues a page task, deduplicating against the done and
// already-queued sets by defragmented URL (spec.md §4.6).
func (s *Scheduler) EnqueuePage(u urlref.URLRef) {
	resolved, err := u.Resolved()
	if err != nil {
		resolved = u.Ref()
	}
	key := urlref.Defragment(resolved)
	if s.donePages[key] || s.queuedPages[key] {
		return
	}
	s.queuedPages[key] = true
	s.queue = append(s.queue, model.PageTask{URL: u})
}

// EnqueueLink enqueues a link-verification task. Links are always
// appended: many links may target the same URL from different pages, and
// each reference is verified independently (spec.md §4.6).
func (s *Scheduler) EnqueueLink(l model.Link) {
	s.queue = append(s.queue, model.LinkTask{Link: l})
}

// MarkPageDone records that one page URL (a final URL or a single hop of
// its redirect chain; callers mark each hop separately) has been fully
// processed, so future EnqueuePage calls for it are dropped.
func (s *Scheduler) MarkPageDone(rawURL string) {
	s.donePages[urlref.Defragment(rawURL)] = true
}

// PageDone reports whether a defragmented page URL has already been
// processed.
func (s *Scheduler) PageDone(rawURL string) bool {
	return s.donePages[urlref.Defragment(rawURL)]
}

// Len reports the number of tasks still queued.
func (s *Scheduler) Len() int { return len(s.queue) }

// Run drains the queue, calling run for each task in turn, implementing
// the host-cooldown algorithm of spec.md §4.6.
func (s *Scheduler) Run(ctx context.Context, run Runner) error {
	for len(s.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		task := s.queue[0]
		host := taskHost(task)
		now := s.clock.Now()

		if deadline, cooling := s.notBefore[host]; cooling && now.Before(deadline) {
			if s.anyHostReady(now, host) {
				s.queue = append(s.queue[1:], task)
				continue
			}
			sleep := s.minDeadline(now).Sub(now)
			if sleep < 0 {
				sleep = 0
			}
			if s.hooks.HandleSleep != nil {
				s.hooks.HandleSleep(sleep.Seconds())
			}
			s.clock.Sleep(sleep)
			continue
		}

		s.queue = s.queue[1:]
		err := run(ctx, task)
		var rae *httpcache.RetryAfterError
		if errors.As(err, &rae) {
			if s.hooks.Handle429 != nil {
				s.hooks.Handle429(rae)
			}
			s.notBefore[host] = now.Add(time.Duration(rae.Seconds) * time.Second)
			s.queue = append(s.queue, task)
			continue
		}
	}
	return nil
}

// anyHostReady reports whether some other queued task's host deadline
// has already passed, meaning there is other work to do before we need
// to sleep for excludeHost's cooldown.
func (s *Scheduler) anyHostReady(now time.Time, excludeHost string) bool {
	for _, t := range s.queue {
		h := taskHost(t)
		if h == excludeHost {
			continue
		}
		if deadline, cooling := s.notBefore[h]; !cooling || !now.Before(deadline) {
			return true
		}
	}
	return false
}

// minDeadline returns the earliest not-before deadline among hosts with
// tasks currently queued.
func (s *Scheduler) minDeadline(now time.Time) time.Time {
	min := now.Add(24 * time.Hour)
	found := false
	for _, t := range s.queue {
		h := taskHost(t)
		if deadline, ok := s.notBefore[h]; ok {
			if !found || deadline.Before(min) {
				min = deadline
				found = true
			}
		}
	}
	if !found {
		return now
	}
	return min
}

func taskHost(task model.Task) string {
	switch t := task.(type) {
	case model.PageTask:
		resolved, err := t.URL.Resolved()
		if err != nil {
			return ""
		}
		return urlref.Hostname(resolved)
	case model.LinkTask:
		resolved, err := t.Link.LinkURL.Resolved()
		if err != nil {
			return ""
		}
		return urlref.Hostname(resolved)
	default:
		return ""
	}
}
