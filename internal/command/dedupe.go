// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"strings"
	"sync"
	"time"
)

// Deduplication defaults. Game servers redeliver chat events; a repeated
// (player, message) pair inside the window is dropped.
const (
	DefaultDedupeWindow = 10 * time.Second
	DefaultDedupeSweep  = 5 * time.Second
)

// Deduper remembers recently seen chat lines. It is safe for concurrent use.
type Deduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDeduper starts a deduper whose background sweep runs every sweep
// interval. A zero window or sweep uses the defaults. Call Close to stop it.
func NewDeduper(window, sweep time.Duration, clock func() time.Time) *Deduper {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	if sweep <= 0 {
		sweep = DefaultDedupeSweep
	}
	if clock == nil {
		clock = time.Now
	}
	d := &Deduper{
		seen:   make(map[string]time.Time),
		window: window,
		now:    clock,
		stop:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.sweepLoop(sweep)
	return d
}

func dedupeKey(player, message string) string {
	return player + "-" + strings.ToLower(message)
}

// Seen records the line and reports whether it was already recorded within
// the window.
func (d *Deduper) Seen(player, message string) bool {
	key := dedupeKey(player, message)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true
	}
	d.seen[key] = now
	return false
}

// Sweep forgets lines older than the window.
func (d *Deduper) Sweep() {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of remembered lines.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduper) sweepLoop(interval time.Duration) {
	defer d.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (d *Deduper) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}
