// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"time"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/timer"
)

// KindCountdown is a pending teleport of an unauthorized player. The task
// key is the player's normalized name.
const KindCountdown timer.Kind = "warden.countdown"

// FireDue runs every timer due at now. Each task re-checks that the state
// it was scheduled against still holds; stale tasks are no-ops.
func (e *Engine) FireDue(now time.Time) {
	for _, task := range e.timers.Due(now) {
		e.guard(string(task.Kind), func() { e.fire(task, now) })
	}
}

func (e *Engine) fire(task timer.Task, now time.Time) {
	switch task.Kind {
	case claim.KindExpiry:
		e.fireExpiry(task, now)
	case claim.KindEviction:
		e.fireEviction(task, now)
	case claim.KindCooldown:
		e.fireCooldownDone(task)
	case KindCountdown:
		e.fireCountdown(task, now)
	default:
		e.logger.Warn("unknown timer kind", "kind", task.Kind, "key", task.Key)
	}
}

func (e *Engine) fireExpiry(task timer.Task, now time.Time) {
	c, ok := e.registry.Get(task.Key)
	if !ok || c.State != claim.Active || c.Expiry != task.Handle {
		return
	}
	c.Expiry = 0
	def := c.POI

	if def.Dynamic {
		e.registry.Delete(def.ID)
		transitions.WithLabelValues(reasonDynamicEnd).Inc()
		e.logger.Info("dynamic claim expired", "poi", def.ID, "claim_id", c.ID.String())
		e.broadcast(msgDynamicExpired(def.Name))
		return
	}

	e.logger.Info("claim hard cap reached, evicting members", "poi", def.ID, "claim_id", c.ID.String())
	e.broadcast(msgHardCap(def.Name))
	e.registry.ScheduleEviction(def.ID, now.Add(e.cfg.EvictionDelay))
}

func (e *Engine) fireEviction(task timer.Task, now time.Time) {
	c, ok := e.registry.Get(task.Key)
	if !ok || c.State != claim.Active || c.Eviction != task.Handle {
		return
	}
	c.Eviction = 0
	def := c.POI

	view := e.players.View(now)
	if def.HasZone() {
		for _, m := range c.Members {
			p, online := view.Lookup(m.Name)
			if online && inKick(def, p) {
				e.teleport(def, p, reasonHardCap)
			}
		}
	}
	e.startCooldown(def, view, now, false, reasonHardCap)
}

func (e *Engine) fireCooldownDone(task timer.Task) {
	c, ok := e.registry.Get(task.Key)
	if !ok || c.State != claim.Cooldown || c.Finish != task.Handle {
		return
	}
	e.registry.Delete(task.Key)
	transitions.WithLabelValues(reasonCompleted).Inc()
	e.logger.Info("cooldown finished", "poi", task.Key, "claim_id", c.ID.String())
	e.broadcast(msgAvailable(c.POI.Name))
}

// fireCountdown teleports a player whose countdown ran out, provided they
// are still online, inside the kick radius and unauthorized.
func (e *Engine) fireCountdown(task timer.Task, now time.Time) {
	cd, ok := e.countdowns[task.Key]
	if !ok || cd.handle != task.Handle {
		return
	}
	delete(e.countdowns, task.Key)

	def, ok := e.catalog.Get(cd.poi)
	if !ok || !def.HasZone() {
		return
	}
	p, online := e.players.View(now).Lookup(task.Key)
	if !online || !inKick(def, p) || e.authorized(def, p.Name, now) {
		e.logger.Info("countdown expired without teleport", "player", task.Key, "poi", def.ID)
		return
	}
	e.teleport(def, p, "unauthorized")
}

func (e *Engine) teleport(def *poi.Definition, p players.Snapshot, reason string) {
	teleports.WithLabelValues(reason).Inc()
	e.logger.Info("teleporting player", "player", p.DisplayName, "poi", def.ID, "reason", reason)
	e.notifier.Teleport(notify.Teleport{
		Player:     p.DisplayName,
		Name:       p.Name,
		PlatformID: p.PlatformID,
		Target:     def.Zone.Safe,
		POI:        def.ID,
		Reason:     reason,
	})
}
