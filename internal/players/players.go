// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package players tracks the online-player feed: a liveness-aware snapshot
// cache, a poller that refreshes it, and consistent per-tick views.
package players

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"golang.org/x/text/unicode/norm"

	"github.com/claimwarden/claimwarden/internal/geo"
)

// DefaultLiveness is how long after the last sighting a player still counts as online.
const DefaultLiveness = 45 * time.Second

// Error codes returned by Refresh.
const (
	CodeFetchFailed = "PLAYER_FETCH_FAILED"
	CodeEmptyFeed   = "PLAYER_FEED_EMPTY"
)

// Snapshot is the last known state of one player.
type Snapshot struct {
	Name        string // normalized identity key
	DisplayName string
	PlatformID  string // steam64, may be empty when the feed omits it
	Position    geo.Vec2
	Height      float64
	LastSeen    time.Time
}

// NormalizeName returns the identity key for a player name.
// Identity is name based; two players sharing a name are indistinguishable.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(name)))
}

// Fetcher retrieves the online-player feed. An error must be returned on
// failure so it is never confused with an empty server.
type Fetcher interface {
	FetchPlayers(ctx context.Context) ([]Snapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]Snapshot, error)

// FetchPlayers implements Fetcher.
func (f FetcherFunc) FetchPlayers(ctx context.Context) ([]Snapshot, error) {
	return f(ctx)
}

// Roster is a read-only view of online players.
type Roster interface {
	// Lookup returns the online player with the given normalized name.
	Lookup(name string) (Snapshot, bool)
	// Online returns every online player ordered by name.
	Online() []Snapshot
}

// Cache holds the most recent snapshot of every player ever seen. Records
// are never removed on refresh; staleness is judged at query time.
type Cache struct {
	mu          sync.RWMutex
	players     map[string]Snapshot
	liveness    time.Duration
	lastRefresh time.Time
}

// NewCache creates a cache. A non-positive liveness uses DefaultLiveness.
func NewCache(liveness time.Duration) *Cache {
	if liveness <= 0 {
		liveness = DefaultLiveness
	}
	return &Cache{
		players:  make(map[string]Snapshot),
		liveness: liveness,
	}
}

// Liveness returns the online threshold.
func (c *Cache) Liveness() time.Duration {
	return c.liveness
}

// Refresh fetches the feed and upserts it. On failure, or when the feed
// holds no usable records, the cache is left untouched.
func (c *Cache) Refresh(ctx context.Context, f Fetcher, now time.Time) (int, error) {
	snaps, err := f.FetchPlayers(ctx)
	if err != nil {
		refreshes.WithLabelValues(resultError).Inc()
		return 0, oops.Code(CodeFetchFailed).Wrap(err)
	}

	n := c.Upsert(now, snaps)
	if n == 0 {
		refreshes.WithLabelValues(resultEmpty).Inc()
		return 0, oops.Code(CodeEmptyFeed).With("records", len(snaps)).Errorf("player feed had no usable records")
	}
	refreshes.WithLabelValues(resultSuccess).Inc()
	onlinePlayers.Set(float64(c.OnlineCount(now)))
	return n, nil
}

// Upsert records snapshots as seen at now and returns how many were usable.
// Records without a name are skipped.
func (c *Cache) Upsert(now time.Time, snaps []Snapshot) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range snaps {
		display := strings.TrimSpace(s.DisplayName)
		if display == "" {
			display = strings.TrimSpace(s.Name)
		}
		key := NormalizeName(display)
		if key == "" {
			continue
		}
		s.Name = key
		s.DisplayName = display
		s.LastSeen = now
		if s.PlatformID == "" {
			// Keep an id learned from an earlier sighting.
			if prev, ok := c.players[key]; ok {
				s.PlatformID = prev.PlatformID
			}
		}
		c.players[key] = s
		n++
	}
	if n > 0 {
		c.lastRefresh = now
	}
	return n
}

// Ready reports whether at least one refresh has succeeded.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastRefresh.IsZero()
}

// LastRefresh returns the time of the last successful upsert.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

func (c *Cache) online(s Snapshot, now time.Time) bool {
	return now.Sub(s.LastSeen) <= c.liveness
}

// IsOnline reports whether the named player was seen within the liveness window.
func (c *Cache) IsOnline(name string, now time.Time) bool {
	_, ok := c.Get(name, now)
	return ok
}

// Get returns the snapshot of an online player.
func (c *Cache) Get(name string, now time.Time) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.players[NormalizeName(name)]
	if !ok || !c.online(s, now) {
		return Snapshot{}, false
	}
	return s, true
}

// OnlineCount returns how many players are online at now.
func (c *Cache) OnlineCount(now time.Time) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, s := range c.players {
		if c.online(s, now) {
			n++
		}
	}
	return n
}

// Clear drops every record.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = make(map[string]Snapshot)
	c.lastRefresh = time.Time{}
}

// View returns a consistent copy of the players online at now.
func (c *Cache) View(now time.Time) *View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := &View{byName: make(map[string]Snapshot, len(c.players))}
	for k, s := range c.players {
		if c.online(s, now) {
			v.byName[k] = s
			v.ordered = append(v.ordered, s)
		}
	}
	sort.Slice(v.ordered, func(i, j int) bool { return v.ordered[i].Name < v.ordered[j].Name })
	return v
}

// View is an immutable set of online players.
type View struct {
	byName  map[string]Snapshot
	ordered []Snapshot
}

// NewView builds a view from snapshots, for tests and tooling.
func NewView(snaps ...Snapshot) *View {
	v := &View{byName: make(map[string]Snapshot, len(snaps))}
	for _, s := range snaps {
		if s.Name == "" {
			s.Name = NormalizeName(s.DisplayName)
		}
		if s.DisplayName == "" {
			s.DisplayName = s.Name
		}
		if _, dup := v.byName[s.Name]; !dup {
			v.ordered = append(v.ordered, s)
		}
		v.byName[s.Name] = s
	}
	sort.Slice(v.ordered, func(i, j int) bool { return v.ordered[i].Name < v.ordered[j].Name })
	return v
}

// Lookup implements Roster.
func (v *View) Lookup(name string) (Snapshot, bool) {
	s, ok := v.byName[name]
	return s, ok
}

// Online implements Roster.
func (v *View) Online() []Snapshot {
	out := make([]Snapshot, len(v.ordered))
	copy(out, v.ordered)
	return out
}

// Len returns the number of online players.
func (v *View) Len() int {
	return len(v.ordered)
}
