package traffic

import (
	"sync"
	"time"
)

// Recorder keeps a sliding window of coverage-request outcomes backing the
// /health degraded check.
type Recorder struct {
	mu     sync.Mutex
	events []event
	// maxAge bounds how far back any caller will ever ask; older events
	// are pruned on write.
	maxAge time.Duration
}

type event struct {
	at     time.Time
	failed bool
}

// NewRecorder creates a Recorder that retains events up to maxAge.
func NewRecorder(maxAge time.Duration) *Recorder {
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	return &Recorder{maxAge: maxAge}
}

// RecordSuccess records a served request.
func (r *Recorder) RecordSuccess() {
	r.record(false)
}

// RecordError records a failed request.
func (r *Recorder) RecordError() {
	r.record(true)
}

func (r *Recorder) record(failed bool) {
	now := time.Now()
	r.mu.Lock()
	r.events = append(r.events, event{at: now, failed: failed})
	r.prune(now)
	r.mu.Unlock()
}

// prune drops events older than maxAge. Caller holds the lock.
func (r *Recorder) prune(now time.Time) {
	cutoff := now.Add(-r.maxAge)
	i := 0
	for i < len(r.events) && r.events[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.events = append(r.events[:0], r.events[i:]...)
	}
}

// Counts returns (errors, total) within the window ending now.
func (r *Recorder) Counts(window time.Duration) (int, int) {
	cutoff := time.Now().Add(-window)
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs, total int
	for _, e := range r.events {
		if e.at.Before(cutoff) {
			continue
		}
		total++
		if e.failed {
			errs++
		}
	}
	return errs, total
}

// Reset clears all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// defaultRecorder is the process-wide recorder used by the HTTP layer.
var defaultRecorder = NewRecorder(10 * time.Minute)

// RecordSuccess records a served request on the default recorder.
func RecordSuccess() { defaultRecorder.RecordSuccess() }

// RecordError records a failed request on the default recorder.
func RecordError() { defaultRecorder.RecordError() }

// Counts returns (errors, total) within the window on the default recorder.
func Counts(window time.Duration) (int, int) { return defaultRecorder.Counts(window) }

// Reset clears the default recorder. Test helper.
func Reset() { defaultRecorder.Reset() }
