// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package claim holds the claim lifecycle: the Claim record, the Registry
// that owns every transition, the per-cycle claim history and the team-wipe
// heuristic. A Registry is not safe for concurrent use; it is owned by the
// enforcement engine's loop.
package claim

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/timer"
)

// State is the lifecycle position of a claim.
type State int

// Claim states. Grace is a mode of Cooldown, not a state of its own.
const (
	Active State = iota + 1
	Cooldown
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Timer kinds scheduled by the registry. The task key is the POI id.
const (
	KindExpiry   timer.Kind = "claim.expiry"
	KindEviction timer.Kind = "claim.eviction"
	KindCooldown timer.Kind = "claim.cooldown"
)

// Claim is an exclusive, time-boxed grant over one POI.
type Claim struct {
	ID           ulid.ULID
	POI          *poi.Definition
	State        State
	Owner        string // normalized
	OwnerDisplay string

	// Members in join order; the owner is always first.
	Members []Member

	CreatedAt     time.Time
	ActiveUntil   time.Time
	CooldownUntil time.Time

	Engaged       bool
	LastEngagedAt time.Time
	// LastInside is each member's last position inside the kick radius.
	LastInside map[string]geo.Vec2

	GraceAllowed  bool
	GraceDeadline map[string]time.Time
	// LeftReturnZone marks members seen outside the return zone since
	// their last grace deadline was granted.
	LeftReturnZone map[string]bool

	Expiry   timer.Handle
	Eviction timer.Handle
	Finish   timer.Handle
}

// Member is a player authorized by a claim.
type Member struct {
	Name    string // normalized
	Display string
}

// IsMember reports whether the normalized name belongs to the claim.
func (c *Claim) IsMember(name string) bool {
	return slices.ContainsFunc(c.Members, func(m Member) bool { return m.Name == name })
}

// MemberNames returns the normalized member names in join order.
func (c *Claim) MemberNames() []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.Name
	}
	return out
}

// Grouped returns the display names of every member except the owner.
func (c *Claim) Grouped() []string {
	out := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m.Name != c.Owner {
			out = append(out, m.Display)
		}
	}
	return out
}

// HasGrace reports whether the member holds an unexpired grace deadline.
func (c *Claim) HasGrace(name string, now time.Time) bool {
	deadline, ok := c.GraceDeadline[name]
	return ok && !now.After(deadline)
}

// Authorized reports whether the named player may be inside the kick radius.
func (c *Claim) Authorized(name string, now time.Time) bool {
	if !c.IsMember(name) {
		return false
	}
	switch c.State {
	case Active:
		return true
	case Cooldown:
		return c.GraceAllowed && c.HasGrace(name, now)
	default:
		return false
	}
}

// Remaining returns the time left in the current state, never negative.
func (c *Claim) Remaining(now time.Time) time.Duration {
	until := c.ActiveUntil
	if c.State == Cooldown {
		until = c.CooldownUntil
	}
	if d := until.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (c *Claim) addMember(name, display string) {
	c.Members = append(c.Members, Member{Name: name, Display: display})
}
