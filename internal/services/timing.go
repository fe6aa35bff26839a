package services

import (
	"sort"
	"sync"
	"time"
)

// MaxSamples bounds how many durations are kept per operation; older ones
// are dropped first.
const MaxSamples = 64

// Timing marks the start of one measured operation.
type Timing struct {
	Operation string
	StartTime time.Time
}

// Tracker accumulates recent durations per operation name. Session records
// load, run and export times plus the per-stage timings of every pipeline run.
type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
	}
}

func (tt *Tracker) Start(operation string) Timing {
	return Timing{Operation: operation, StartTime: time.Now()}
}

// End records the time elapsed since t was started and returns it.
func (tt *Tracker) End(t Timing) time.Duration {
	duration := time.Since(t.StartTime)
	tt.Record(t.Operation, duration)
	return duration
}

func (tt *Tracker) Record(operation string, duration time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	samples := append(tt.timings[operation], duration)
	if len(samples) > MaxSamples {
		samples = append(samples[:0:0], samples[len(samples)-MaxSamples:]...)
	}
	tt.timings[operation] = samples
}

func (tt *Tracker) Timings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

// Operations lists every operation with at least one recording, sorted.
func (tt *Tracker) Operations() []string {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	ops := make([]string, 0, len(tt.timings))
	for op := range tt.timings {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func (tt *Tracker) Average(operation string) time.Duration {
	timings := tt.Timings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}

	return total / time.Duration(len(timings))
}
