// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package claim

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/timer"
)

// Default claim timings and distances.
const (
	DefaultDuration         = 45 * time.Minute
	DefaultExtendedDuration = 60 * time.Minute
	DefaultCooldownDuration = 45 * time.Minute
	DefaultGroupingRadius   = 100.0
	DefaultReturnRadius     = 500.0
)

// Config holds the registry's timings and distances.
type Config struct {
	Duration         time.Duration
	ExtendedDuration time.Duration
	CooldownDuration time.Duration
	// GroupingRadius is how close a teammate must be to the claimant.
	GroupingRadius float64
	// ReturnRadius bounds where a claim may be made from.
	ReturnRadius float64
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Duration:         DefaultDuration,
		ExtendedDuration: DefaultExtendedDuration,
		CooldownDuration: DefaultCooldownDuration,
		GroupingRadius:   DefaultGroupingRadius,
		ReturnRadius:     DefaultReturnRadius,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.ExtendedDuration <= 0 {
		c.ExtendedDuration = d.ExtendedDuration
	}
	if c.CooldownDuration <= 0 {
		c.CooldownDuration = d.CooldownDuration
	}
	if c.GroupingRadius <= 0 {
		c.GroupingRadius = d.GroupingRadius
	}
	if c.ReturnRadius <= 0 {
		c.ReturnRadius = d.ReturnRadius
	}
	return c
}

// Registry maps POI ids to claims and owns every transition. At most one
// claim exists per POI.
type Registry struct {
	cfg     Config
	timers  *timer.Set
	claims  map[string]*Claim
	history map[string]map[string]struct{}
	logger  *slog.Logger
}

// NewRegistry creates an empty registry scheduling its timers on timers.
func NewRegistry(timers *timer.Set, cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:     cfg.withDefaults(),
		timers:  timers,
		claims:  make(map[string]*Claim),
		history: make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (r *Registry) Config() Config {
	return r.cfg
}

// Get returns the claim on a POI.
func (r *Registry) Get(poiID string) (*Claim, bool) {
	c, ok := r.claims[poiID]
	return c, ok
}

// Claims returns every claim ordered by creation.
func (r *Registry) Claims() []*Claim {
	out := make([]*Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out
}

// Len returns the number of claims.
func (r *Registry) Len() int {
	return len(r.claims)
}

// InHistory reports whether name already claimed or grouped into poiID this cycle.
func (r *Registry) InHistory(poiID, name string) bool {
	_, ok := r.history[poiID][name]
	return ok
}

func (r *Registry) remember(def *poi.Definition, name string) {
	if def.Dynamic {
		return
	}
	set, ok := r.history[def.ID]
	if !ok {
		set = make(map[string]struct{})
		r.history[def.ID] = set
	}
	set[name] = struct{}{}
}

func (r *Registry) durationFor(def *poi.Definition) time.Duration {
	if def.Extended {
		return r.cfg.ExtendedDuration
	}
	return r.cfg.Duration
}

// Create claims def for the named player. Static POIs require the owner to
// be online, within the return radius and absent from the POI's history;
// online players within the grouping radius join automatically.
func (r *Registry) Create(def *poi.Definition, ownerDisplay string, roster players.Roster, now time.Time) (*Claim, error) {
	if def == nil {
		return nil, ErrUnknownPOI("", ownerDisplay)
	}
	owner := players.NormalizeName(ownerDisplay)
	if _, busy := r.claims[def.ID]; busy {
		return nil, errAlreadyClaimed(def, ownerDisplay)
	}

	var ownerSnap players.Snapshot
	if !def.Dynamic {
		var ok bool
		ownerSnap, ok = roster.Lookup(owner)
		if !ok {
			return nil, errPositionUnavailable(def, ownerDisplay)
		}
		if r.InHistory(def.ID, owner) {
			return nil, errAlreadyClaimedThisCycle(def, ownerDisplay)
		}
		if !def.HasZone() {
			return nil, errPositionUnavailable(def, ownerDisplay)
		}
		if d := geo.Distance(ownerSnap.Position, def.Zone.Center); d > r.cfg.ReturnRadius {
			return nil, errTooFarAway(def, ownerDisplay, d, r.cfg.ReturnRadius)
		}
	}

	duration := r.durationFor(def)
	c := &Claim{
		ID:             ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		POI:            def,
		State:          Active,
		Owner:          owner,
		OwnerDisplay:   strings.TrimSpace(ownerDisplay),
		CreatedAt:      now,
		ActiveUntil:    now.Add(duration),
		LastInside:     make(map[string]geo.Vec2),
		GraceDeadline:  make(map[string]time.Time),
		LeftReturnZone: make(map[string]bool),
	}
	c.addMember(owner, c.OwnerDisplay)

	if !def.Dynamic {
		for _, p := range roster.Online() {
			if p.Name == owner || !geo.Within(ownerSnap.Position, p.Position, r.cfg.GroupingRadius) {
				continue
			}
			if r.InHistory(def.ID, p.Name) {
				r.logger.Info("skipping grouped player already in claim history",
					"poi", def.ID, "player", p.DisplayName)
				continue
			}
			c.addMember(p.Name, p.DisplayName)
		}
		for _, m := range c.Members {
			r.remember(def, m.Name)
		}
	}

	c.Expiry = r.timers.Schedule(KindExpiry, def.ID, c.ActiveUntil)
	r.claims[def.ID] = c

	r.logger.Info("claim created",
		"poi", def.ID,
		"claim_id", c.ID.String(),
		"player", c.OwnerDisplay,
		"members", len(c.Members),
		"duration", duration)
	return c, nil
}

// Join adds a player to an active claim that has not yet been engaged. The
// joiner must be within the grouping radius of the owner.
func (r *Registry) Join(def *poi.Definition, joinerDisplay string, roster players.Roster, now time.Time) (*Claim, error) {
	if def == nil {
		return nil, ErrUnknownPOI("", joinerDisplay)
	}
	joiner := players.NormalizeName(joinerDisplay)

	c, ok := r.claims[def.ID]
	if !ok || c.State != Active {
		return nil, errNotActivelyClaimed(def, joinerDisplay)
	}
	if c.IsMember(joiner) {
		return nil, errAlreadyMember(def, joinerDisplay)
	}
	if c.Engaged {
		return nil, errAlreadyEngaged(def, joinerDisplay, c.OwnerDisplay)
	}
	if !def.Dynamic && r.InHistory(def.ID, joiner) {
		return nil, errAlreadyClaimedThisCycle(def, joinerDisplay)
	}

	joinerSnap, ok := roster.Lookup(joiner)
	if !ok {
		return nil, errCannotVerifyPosition(def, joinerDisplay)
	}
	ownerSnap, ok := roster.Lookup(c.Owner)
	if !ok {
		return nil, errCannotVerifyPosition(def, joinerDisplay)
	}
	if d := geo.Distance(joinerSnap.Position, ownerSnap.Position); d > r.cfg.GroupingRadius {
		return nil, errTooFarFromLeader(def, joinerDisplay, c.OwnerDisplay, d, r.cfg.GroupingRadius)
	}

	c.addMember(joiner, joinerSnap.DisplayName)
	r.remember(def, joiner)

	r.logger.Info("player joined claim",
		"poi", def.ID,
		"claim_id", c.ID.String(),
		"player", joinerSnap.DisplayName,
		"at", now)
	return c, nil
}

// Cancel deletes a claim at its owner's request. No cooldown follows.
func (r *Registry) Cancel(def *poi.Definition, requesterDisplay string) (*Claim, error) {
	if def == nil {
		return nil, ErrUnknownPOI("", requesterDisplay)
	}
	c, ok := r.claims[def.ID]
	if !ok {
		return nil, errNotClaimed(def, requesterDisplay)
	}
	if c.Owner != players.NormalizeName(requesterDisplay) {
		return nil, errNotOwner(def, requesterDisplay, c.OwnerDisplay)
	}
	r.remove(c)
	r.logger.Info("claim cancelled", "poi", def.ID, "claim_id", c.ID.String(), "player", requesterDisplay)
	return c, nil
}

// ScheduleEviction arms the delayed removal of members after a hard-cap
// expiry. It reports false unless the claim is active.
func (r *Registry) ScheduleEviction(poiID string, at time.Time) bool {
	c, ok := r.claims[poiID]
	if !ok || c.State != Active {
		return false
	}
	r.timers.Cancel(c.Eviction)
	c.Eviction = r.timers.Schedule(KindEviction, poiID, at)
	return true
}

// StartCooldown moves an active claim to cooldown, cancelling its expiry
// and eviction timers and arming cooldown completion. It is a no-op that
// reports false for a claim that is absent or already cooling down.
func (r *Registry) StartCooldown(poiID string, now time.Time, grace bool) (*Claim, bool) {
	c, ok := r.claims[poiID]
	if !ok || c.State != Active {
		return nil, false
	}
	r.timers.Cancel(c.Expiry)
	r.timers.Cancel(c.Eviction)
	c.Expiry, c.Eviction = 0, 0

	c.State = Cooldown
	c.CooldownUntil = now.Add(r.cfg.CooldownDuration)
	c.GraceAllowed = grace
	clear(c.GraceDeadline)
	clear(c.LeftReturnZone)
	c.Finish = r.timers.Schedule(KindCooldown, poiID, c.CooldownUntil)

	r.logger.Info("claim cooling down",
		"poi", poiID,
		"claim_id", c.ID.String(),
		"grace", grace,
		"until", c.CooldownUntil)
	return c, true
}

// Delete removes a claim and cancels its timers.
func (r *Registry) Delete(poiID string) (*Claim, bool) {
	c, ok := r.claims[poiID]
	if !ok {
		return nil, false
	}
	r.remove(c)
	return c, true
}

func (r *Registry) remove(c *Claim) {
	r.timers.Cancel(c.Expiry)
	r.timers.Cancel(c.Eviction)
	r.timers.Cancel(c.Finish)
	c.Expiry, c.Eviction, c.Finish = 0, 0, 0
	delete(r.claims, c.POI.ID)
}

// Reset drops every claim and the whole claim history, cancelling every
// claim timer. It returns how many claims were dropped.
func (r *Registry) Reset() int {
	n := len(r.claims)
	for _, c := range r.claims {
		r.remove(c)
	}
	clear(r.history)
	return n
}
