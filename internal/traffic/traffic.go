// Package traffic keeps sliding windows of request and upstream outcomes.
// Health uses them for overload and degraded detection; metrics expose them as gauges.
package traffic

import (
	"sort"
	"sync"
	"time"
)

// retention bounds how long outcomes are kept; windows longer than this undercount.
const retention = 5 * time.Minute

var (
	requests Tracker

	upstreamsMu sync.Mutex
	upstreams   = map[string]*Tracker{}
)

// Requests returns the tracker for inbound API requests (rate-limited path).
func Requests() *Tracker {
	return &requests
}

// Upstream returns the tracker for a named upstream API, creating it on first use.
func Upstream(name string) *Tracker {
	upstreamsMu.Lock()
	defer upstreamsMu.Unlock()
	t, ok := upstreams[name]
	if !ok {
		t = &Tracker{}
		upstreams[name] = t
	}
	return t
}

// UpstreamNames lists upstreams that have recorded at least one outcome, sorted.
func UpstreamNames() []string {
	upstreamsMu.Lock()
	defer upstreamsMu.Unlock()
	names := make([]string, 0, len(upstreams))
	for n := range upstreams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset clears every tracker. For tests only.
func Reset() {
	requests.Reset()
	upstreamsMu.Lock()
	upstreams = map[string]*Tracker{}
	upstreamsMu.Unlock()
}

// Tracker maintains sliding windows of outcome timestamps.
type Tracker struct {
	mu           sync.Mutex
	successTimes []time.Time
	errorTimes   []time.Time
	deniedTimes  []time.Time
}

// RecordSuccess records a successful outcome.
func (t *Tracker) RecordSuccess() {
	t.record(&t.successTimes)
}

// RecordError records a failed outcome (upstream error, timeout, etc.).
func (t *Tracker) RecordError() {
	t.record(&t.errorTimes)
}

// RecordDenied records a rate-limit denial (429).
func (t *Tracker) RecordDenied() {
	t.record(&t.deniedTimes)
}

// Record records success when err is nil and an error otherwise.
func (t *Tracker) Record(err error) {
	if err != nil {
		t.RecordError()
		return
	}
	t.RecordSuccess()
}

func (t *Tracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// RequestCount returns successes, errors and denials within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	return countSince(t.successTimes, cutoff) +
		countSince(t.errorTimes, cutoff) +
		countSince(t.deniedTimes, cutoff)
}

// DenialCount returns the number of denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.deniedTimes, time.Now().Add(-window))
}

// ErrorRate returns (errors, total) within the window. Denials are not part of total.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	errCount := countSince(t.errorTimes, cutoff)
	return errCount, errCount + countSince(t.successTimes, cutoff)
}

// ErrorPercent returns the error share of the window in percent, and false when the window is empty.
func (t *Tracker) ErrorPercent(window time.Duration) (float64, bool) {
	errs, total := t.ErrorRate(window)
	if total == 0 {
		return 0, false
	}
	return float64(errs) * 100 / float64(total), true
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successTimes = nil
	t.errorTimes = nil
	t.deniedTimes = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	// times are appended in order, so the first index at or after cutoff bounds the count.
	i := sort.Search(len(times), func(i int) bool { return !times[i].Before(cutoff) })
	return len(times) - i
}

// pruneLocked drops timestamps older than retention. Caller holds t.mu.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	for _, slice := range []*[]time.Time{&t.successTimes, &t.errorTimes, &t.deniedTimes} {
		times := *slice
		i := sort.Search(len(times), func(i int) bool { return !times[i].Before(cutoff) })
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
}
