// Package mock holds recording implementations of the enrollmart interfaces
// for use in tests.
package mock

import (
	"fmt"
	"sync"
	"time"
)

// RecordingStatter is used for testing. Not threadsafe.
type RecordingStatter struct {
	Counts  map[string]int64
	Timings map[string]time.Duration
}

// Count implements Count.
func (r *RecordingStatter) Count(name string, value int64, rate float64, tags ...string) {
	if r.Counts == nil {
		r.Counts = make(map[string]int64)
	}
	r.Counts[name] += value
}

// Gauge implements Gauge.
func (r *RecordingStatter) Gauge(name string, value float64, rate float64, tags ...string) {}

// Timing implements Timing.
func (r *RecordingStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {
	if r.Timings == nil {
		r.Timings = make(map[string]time.Duration)
	}
	r.Timings[name] = value
}

// RecordingLogger keeps every formatted message.
type RecordingLogger struct {
	mu     sync.Mutex
	Infos  []string
	Debugs []string
}

// Printf implements Printf.
func (l *RecordingLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, fmt.Sprintf(format, v...))
}

// Debugf implements Debugf.
func (l *RecordingLogger) Debugf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, fmt.Sprintf(format, v...))
}
