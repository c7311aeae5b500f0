// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/timer"
	"github.com/claimwarden/claimwarden/internal/warden"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testDefs() []poi.Definition {
	return []poi.Definition{
		{
			ID:        "green-mountain-t3",
			Name:      "Green Mountain T3",
			ShortName: "Green Mountain",
			Aliases:   []string{"gm"},
			Zone: &poi.Zone{
				Center:     geo.Vec2{X: 1000, Y: 1000},
				KickRadius: 150,
				Safe:       geo.Vec3{X: 10, Y: 20, Z: 5},
			},
		},
		{
			ID:        "tisy-military-t5",
			Name:      "Tisy Military T5",
			ShortName: "Tisy",
			Extended:  true,
			Zone: &poi.Zone{
				Center:     geo.Vec2{X: 8000, Y: 8000},
				KickRadius: 200,
				Safe:       geo.Vec3{X: 7000, Y: 7000, Z: 100},
			},
		},
	}
}

// fakeEngine runs closures synchronously against a real registry.
type fakeEngine struct {
	mu      sync.Mutex
	now     time.Time
	catalog *poi.Catalog
	claims  *claim.Registry
	snaps   []players.Snapshot
	err     error
	panics  bool
}

func (f *fakeEngine) Do(_ context.Context, fn func(*warden.Tx)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	tx := &warden.Tx{
		Now:     f.now,
		Roster:  players.NewView(f.snaps...),
		Claims:  f.claims,
		Catalog: f.catalog,
	}
	if f.panics {
		// the loop recovered a panic in fn and still reports success
		return nil
	}
	fn(tx)
	return nil
}

func (f *fakeEngine) place(display string, x, y float64) {
	name := players.NormalizeName(display)
	for i, s := range f.snaps {
		if s.Name == name {
			f.snaps[i].Position = geo.Vec2{X: x, Y: y}
			return
		}
	}
	f.snaps = append(f.snaps, players.Snapshot{
		Name:        name,
		DisplayName: display,
		Position:    geo.Vec2{X: x, Y: y},
		LastSeen:    f.now,
	})
}

type fakeLinker struct {
	mu    sync.Mutex
	links map[string]string
	err   error
}

func (l *fakeLinker) Link(_ context.Context, player, platformID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	if l.links == nil {
		l.links = make(map[string]string)
	}
	l.links[player] = platformID
	return nil
}

type harness struct {
	engine   *fakeEngine
	links    *fakeLinker
	services *command.Services
}

func newHarness(t *testing.T, exclusions ...string) *harness {
	t.Helper()
	catalog, err := poi.New(testDefs())
	require.NoError(t, err)
	ex, err := command.NewExclusions(exclusions)
	require.NoError(t, err)

	reg := command.NewRegistry()
	RegisterAll(reg)

	engine := &fakeEngine{
		now:     t0,
		catalog: catalog,
		claims:  claim.NewRegistry(timer.NewSet(), claim.DefaultConfig(), slog.Default()),
	}
	links := &fakeLinker{}
	return &harness{
		engine: engine,
		links:  links,
		services: &command.Services{
			Engine:     engine,
			Resolver:   poi.NewResolver(catalog),
			Links:      links,
			Exclusions: ex,
			Registry:   reg,
		},
	}
}

// run invokes handler for player with args and returns its output.
func (h *harness) run(handler command.CommandHandler, invokedAs, player, args string) (string, error) {
	var out bytes.Buffer
	exec := &command.CommandExecution{
		Player:     player,
		PlayerName: players.NormalizeName(player),
		Args:       args,
		InvokedAs:  invokedAs,
		Output:     &out,
		Services:   h.services,
	}
	err := handler(context.Background(), exec)
	return out.String(), err
}
