package frame

import (
	"sync"
	"time"
)

// Host delivers presentation-ready signals. RequestFrame arranges for cb to
// be called once, before the next presentation, with the host timestamp.
// It returns ErrHostStopped when no further frames will be delivered.
type Host interface {
	RequestFrame(cb func(now time.Duration)) error
}

// TimerHost is a Host driven by a timer, for headless runs.
type TimerHost struct {
	mu        sync.Mutex
	interval  time.Duration
	limit     int
	requested int
	start     time.Time
}

// NewTimerHost returns a host that signals every interval. A positive limit
// stops the host after that many frames.
func NewTimerHost(interval time.Duration, limit int) *TimerHost {
	return &TimerHost{interval: interval, limit: limit, start: time.Now()}
}

// RequestFrame implements Host.
func (h *TimerHost) RequestFrame(cb func(now time.Duration)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limit > 0 && h.requested >= h.limit {
		return ErrHostStopped
	}
	h.requested++
	time.AfterFunc(h.interval, func() { cb(time.Since(h.start)) })
	return nil
}

// Requested returns how many frames were requested.
func (h *TimerHost) Requested() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requested
}
