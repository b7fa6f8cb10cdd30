// Package monitoring routes non-fatal errors and panics to an error tracker.
// Until Init is called every call is a no-op.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor receives errors worth surfacing outside the logs.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init installs m as the process-wide monitor. A nil m restores the no-op.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records err with optional tags. Nil errors are ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Flush waits up to d for buffered events to be sent.
func Flush(d time.Duration) {
	get().Flush(d)
}

// Go runs fn in a goroutine, reporting and re-raising any panic.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				m := get()
				m.CapturePanic(r)
				m.Flush(2 * time.Second)
				panic(fmt.Sprint(r))
			}
		}()
		fn()
	}()
}
