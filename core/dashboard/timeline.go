package dashboard

import (
	"sync"
	"time"
)

// Sample is a dashboard report taken at a given time.
type Sample struct {
	Time time.Time `json:"time"`
	Report
}

// Timeline keeps the most recent samples up to a fixed capacity.
type Timeline struct {
	mu      sync.RWMutex
	samples []Sample
	limit   int
}

// NewTimeline returns a Timeline holding at most limit samples.
func NewTimeline(limit int) *Timeline {
	if limit <= 0 {
		limit = 1
	}
	return &Timeline{limit: limit}
}

// Append adds s, evicting the oldest sample when full.
func (t *Timeline) Append(s Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) == t.limit {
		copy(t.samples, t.samples[1:])
		t.samples = t.samples[:len(t.samples)-1]
	}
	t.samples = append(t.samples, s)
}

// Samples returns a copy of the samples, oldest first.
func (t *Timeline) Samples() []Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Clear drops every sample.
func (t *Timeline) Clear() {
	t.mu.Lock()
	t.samples = nil
	t.mu.Unlock()
}
