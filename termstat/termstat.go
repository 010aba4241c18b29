// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package termstat provides a stats implementation which periodically writes
// the pipeline counters to the given writer. It is meant for watching a run
// at the terminal in lieu of an external collector. Gauges and timings are
// kept as the last value seen.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is how often a Collector writes by default.
const DefaultInterval = 2 * time.Second

// Collector collects stats and prints them to the terminal.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	last    map[string]string
	changed bool
	out     io.Writer

	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// CollectorOption is a functional option for Collector.
type CollectorOption func(c *Collector)

// OptInterval sets how often the Collector writes its stats.
func OptInterval(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewCollector initializes and returns a new Collector. Close must be called
// to stop it.
func NewCollector(out io.Writer, opts ...CollectorOption) *Collector {
	ts := &Collector{
		indexes:  make(map[string]int),
		last:     make(map[string]string),
		out:      out,
		interval: DefaultInterval,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ts)
	}
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		tick := time.NewTicker(ts.interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write(false)
			case <-ts.done:
				return
			}
		}
	}()
	return ts
}

// Count adds value to the named stat at the specified rate.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true

	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.stats)
		t.stats = append(t.stats, 0)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	if rate < 1 {
		if rand.Float64() > rate {
			return
		}
	}
	t.stats[idx] += value
}

// Get returns the current value of the named counter.
func (t *Collector) Get(name string) int64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	idx, ok := t.indexes[name]
	if !ok {
		return 0
	}
	return t.stats[idx]
}

func (t *Collector) write(final bool) {
	sb := strings.Builder{}
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed && !final {
		return
	}
	for i := 0; i < len(t.stats); i++ {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %d ", t.names[i], t.stats[i]))
	}
	names := make([]string, 0, len(t.last))
	for name := range t.last {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = sb.WriteString(fmt.Sprintf("%s: %s ", name, t.last[name]))
	}
	t.changed = false
	if final {
		fmt.Fprintf(t.out, "\r%s\n", sb.String())
		return
	}
	fmt.Fprintf(t.out, "\r%s", sb.String())
}

// Close stops the periodic writes and writes the stats one last time.
func (t *Collector) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.wg.Wait()
		t.write(true)
	})
	return nil
}

// Gauge records the last value of the named gauge.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.last[name] = fmt.Sprintf("%g", value)
	t.changed = true
}

// Timing records the last value of the named timing.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.last[name] = value.String()
	t.changed = true
}
