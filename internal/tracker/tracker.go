package tracker

import (
	"context"
	"log"
	"time"

	"github.com/runnerr0/ecodash/internal/emission"
)

// Recorder receives closed sessions. Implemented by storage.Store.
type Recorder interface {
	RecordSession(ctx context.Context, service emission.Service, duration time.Duration) error
}

// Session is an open interval of continuous attention to one service.
type Session struct {
	Service    emission.Service
	Start      time.Time
	LastActive time.Time
}

// Tracker converts raw activity signals into closed sessions. It holds
// at most one open session: a signal for a different service closes the
// current session and flushes its duration to the Recorder.
//
// Tracker is not safe for concurrent use; signals are expected to
// arrive serially from a single event source.
type Tracker struct {
	recorder Recorder
	current  *Session
	verbose  bool
}

// New returns a Tracker that flushes closed sessions to recorder.
func New(recorder Recorder) *Tracker {
	return &Tracker{recorder: recorder}
}

// SetVerbose enables per-signal logging.
func (t *Tracker) SetVerbose(v bool) {
	t.verbose = v
}

// Current returns a copy of the open session, or nil if none is open.
func (t *Tracker) Current() *Session {
	if t.current == nil {
		return nil
	}
	s := *t.current
	return &s
}

// Observe processes one activity signal: rawURL became the active page
// at the given time. A signal for the service already open refreshes its
// LastActive timestamp. A signal for a different service closes the open
// session, flushes everything elapsed since the session opened, and
// opens a new session.
func (t *Tracker) Observe(ctx context.Context, rawURL string, at time.Time) error {
	service := emission.Classify(rawURL)

	if t.current == nil {
		t.open(service, at)
		return nil
	}

	if t.current.Service == service {
		if at.After(t.current.LastActive) {
			t.current.LastActive = at
		}
		return nil
	}

	if err := t.flush(ctx, at); err != nil {
		return err
	}
	t.open(service, at)
	return nil
}

// Flush closes the open session, if any, attributing activity up to the
// given time. Used at daemon shutdown so a final session is not lost.
func (t *Tracker) Flush(ctx context.Context, at time.Time) error {
	if t.current == nil {
		return nil
	}
	if err := t.flush(ctx, at); err != nil {
		return err
	}
	t.current = nil
	return nil
}

func (t *Tracker) open(service emission.Service, at time.Time) {
	t.current = &Session{Service: service, Start: at, LastActive: at}
	if t.verbose {
		log.Printf("tracker: opened %s session at %s", service, at.Format(time.RFC3339))
	}
}

// flush records the full span of the open session, from Start to the
// closing timestamp. Start only moves on a service change, so each
// session is attributed exactly once: keep-alive signals extend the
// session without flushing anything, and the transitions partition wall
// time with no interval counted twice or dropped. A timestamp behind
// Start yields zero, which the recorder drops; accumulators are never
// corrupted by clock anomalies.
func (t *Tracker) flush(ctx context.Context, at time.Time) error {
	duration := at.Sub(t.current.Start)
	if duration < 0 {
		log.Printf("tracker: ignoring negative duration for %s (clock anomaly)", t.current.Service)
		duration = 0
	}
	if t.verbose {
		log.Printf("tracker: closing %s session, %s active", t.current.Service, duration)
	}
	return t.recorder.RecordSession(ctx, t.current.Service, duration)
}
