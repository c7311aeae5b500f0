// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"time"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
)

// Transition reasons recorded in metrics and logs.
const (
	reasonAbandoned  = "abandoned"
	reasonUnengaged  = "never_engaged"
	reasonHardCap    = "hard_cap"
	reasonCompleted  = "cooldown_complete"
	reasonDynamicEnd = "dynamic_expired"
	reasonReset      = "reset"
)

// Tick runs one enforcement pass over every POI with geometry.
func (e *Engine) Tick(now time.Time) {
	start := time.Now()
	defer func() { tickDuration.Observe(time.Since(start).Seconds()) }()

	view := e.players.View(now)
	e.guard("countdowns", func() { e.pruneCountdowns(view, now) })

	for _, def := range e.catalog.Zoned() {
		e.guard(def.ID, func() {
			e.evaluate(def, view, now)
			e.enforce(def, view, now)
		})
	}
	e.pruneWarnings(now)
	e.recordClaimStates()
}

func (e *Engine) pruneWarnings(now time.Time) {
	for key, last := range e.warned {
		if now.Sub(last) >= e.cfg.IntrusionCooldown {
			delete(e.warned, key)
		}
	}
}

func inKick(def *poi.Definition, p players.Snapshot) bool {
	return geo.Within(def.Zone.Center, p.Position, def.Zone.KickRadius)
}

func (e *Engine) inReturn(def *poi.Definition, p players.Snapshot) bool {
	return geo.Within(def.Zone.Center, p.Position, e.registry.Config().ReturnRadius)
}

func (e *Engine) authorized(def *poi.Definition, name string, now time.Time) bool {
	c, ok := e.registry.Get(def.ID)
	return ok && c.Authorized(name, now)
}

// pruneCountdowns cancels countdowns whose player went offline, left the
// kick radius or became authorized.
func (e *Engine) pruneCountdowns(view *players.View, now time.Time) {
	for name, cd := range e.countdowns {
		def, ok := e.catalog.Get(cd.poi)
		p, online := view.Lookup(name)
		if ok && online && def.HasZone() && inKick(def, p) && !e.authorized(def, name, now) {
			continue
		}
		e.timers.Cancel(cd.handle)
		delete(e.countdowns, name)
		e.logger.Info("teleport countdown cancelled", "player", name, "poi", cd.poi, "online", online)
	}
}

// evaluate drives an active claim's transitions from observed member positions.
func (e *Engine) evaluate(def *poi.Definition, view *players.View, now time.Time) {
	c, ok := e.registry.Get(def.ID)
	if !ok || c.State != claim.Active {
		return
	}

	inside := 0
	nearby := 0
	for _, m := range c.Members {
		p, online := view.Lookup(m.Name)
		if !online {
			continue
		}
		if e.inReturn(def, p) {
			nearby++
		}
		if inKick(def, p) {
			inside++
			c.LastInside[m.Name] = p.Position
		}
	}

	switch {
	case inside > 0:
		if !c.Engaged {
			e.logger.Info("claim engaged", "poi", def.ID, "claim_id", c.ID.String())
		}
		c.Engaged = true
		c.LastEngagedAt = now
	case c.Engaged:
		if now.Sub(c.LastEngagedAt) > e.cfg.AbandonAfter {
			e.startCooldown(def, view, now, true, reasonAbandoned)
		}
	case nearby == 0:
		e.startCooldown(def, view, now, false, reasonUnengaged)
	}
}

// startCooldown moves an active claim to cooldown, running the wipe check
// when asked. Zero confirmed survivors grants the grace period.
func (e *Engine) startCooldown(def *poi.Definition, view *players.View, now time.Time, checkWipe bool, reason string) {
	c, ok := e.registry.Get(def.ID)
	if !ok || c.State != claim.Active {
		return
	}

	grace := false
	if checkWipe {
		survivors := claim.CountSurvivors(c, view, e.cfg.SurvivorRadius)
		grace = survivors == 0
		e.logger.Info("team wipe check", "poi", def.ID, "claim_id", c.ID.String(), "survivors", survivors)
	}

	if _, ok := e.registry.StartCooldown(def.ID, now, grace); !ok {
		return
	}
	transitions.WithLabelValues(reason).Inc()

	if grace {
		e.broadcast(msgWipe(def.Name, e.cfg.GraceDuration))
		return
	}
	e.broadcast(msgCooldown(def.Name, e.registry.Config().CooldownDuration))
}

// enforce reconciles every online player against the POI's authorization.
func (e *Engine) enforce(def *poi.Definition, view *players.View, now time.Time) {
	c, claimed := e.registry.Get(def.ID)

	for _, p := range view.Online() {
		authorized := false
		if claimed && c.IsMember(p.Name) {
			if c.State == claim.Cooldown && c.GraceAllowed {
				e.trackGrace(def, c, p, now)
			}
			authorized = c.Authorized(p.Name, now)
		}
		if authorized {
			continue
		}

		if inKick(def, p) {
			e.startCountdown(def, p, now)
			continue
		}

		if claimed && c.State == claim.Active && geo.Within(def.Zone.Center, p.Position, e.cfg.IntrusionRadius) {
			e.warnIntrusion(def, p, now)
		}
	}
}

// trackGrace grants a member a grace deadline when they enter the return
// zone without one, or re-enter it after their previous deadline lapsed.
// Leaving the zone never revokes a deadline.
func (e *Engine) trackGrace(def *poi.Definition, c *claim.Claim, p players.Snapshot, now time.Time) {
	deadline, has := c.GraceDeadline[p.Name]
	if !e.inReturn(def, p) {
		if has {
			c.LeftReturnZone[p.Name] = true
		}
		return
	}

	reentered := c.LeftReturnZone[p.Name]
	delete(c.LeftReturnZone, p.Name)
	if has && !(reentered && now.After(deadline)) {
		return
	}

	c.GraceDeadline[p.Name] = now.Add(e.cfg.GraceDuration)
	graceGrants.Inc()
	e.logger.Info("grace period started", "poi", def.ID, "claim_id", c.ID.String(), "player", p.DisplayName)
	e.broadcast(msgGraceStarted(p.DisplayName, def.Name, e.cfg.GraceDuration))
}

func (e *Engine) startCountdown(def *poi.Definition, p players.Snapshot, now time.Time) {
	if _, pending := e.countdowns[p.Name]; pending {
		return
	}
	h := e.timers.Schedule(KindCountdown, p.Name, now.Add(e.cfg.Countdown))
	e.countdowns[p.Name] = countdown{poi: def.ID, handle: h}
	warnings.WithLabelValues(warnRestricted).Inc()
	e.logger.Info("player entered restricted area", "player", p.DisplayName, "poi", def.ID)
	e.broadcast(msgRestricted(p.DisplayName, e.cfg.Countdown))
}

func (e *Engine) warnIntrusion(def *poi.Definition, p players.Snapshot, now time.Time) {
	key := warnKey{player: p.Name, poi: def.ID}
	if last, ok := e.warned[key]; ok && now.Sub(last) < e.cfg.IntrusionCooldown {
		return
	}
	e.warned[key] = now
	warnings.WithLabelValues(warnIntrusion).Inc()
	e.broadcast(msgIntrusion(p.DisplayName, def.Name))
}

// Countdowns returns the players with a pending teleport countdown and the
// POI each will be removed from.
func (e *Engine) Countdowns() map[string]string {
	out := make(map[string]string, len(e.countdowns))
	for name, cd := range e.countdowns {
		out[name] = cd.poi
	}
	return out
}
