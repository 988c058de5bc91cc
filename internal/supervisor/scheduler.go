package supervisor

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs at most one delayed callback per key.
// A callback whose timer was replaced or cancelled never runs.
type Scheduler struct {
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "supervisor"),
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms fn to run after d, replacing any pending callback for key.
func (that *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	log := that.logger.With("method", "Schedule", "key", key)

	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.timers[key]; ok {
		timer.Stop()
		log.Debug("replaced pending timer")
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		that.mu.Lock()
		current, ok := that.timers[key]
		if !ok || current != timer {
			that.mu.Unlock()
			return
		}
		delete(that.timers, key)
		that.mu.Unlock()

		that.logger.Debug("timer fired", "key", key)
		fn()
	})
	that.timers[key] = timer

	log.Debug("timer armed", "after", d)
}

// Cancel disarms the callback for key and reports whether one was pending.
func (that *Scheduler) Cancel(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	timer, ok := that.timers[key]
	if !ok {
		return false
	}

	timer.Stop()
	delete(that.timers, key)

	return true
}

func (that *Scheduler) Pending(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.timers[key]

	return ok
}

// Stop disarms every pending callback.
func (that *Scheduler) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for key, timer := range that.timers {
		timer.Stop()
		delete(that.timers, key)
	}
}
