// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package claim

import (
	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/players"
)

// DefaultSurvivorRadius is how far a member may move from their last
// position inside the kick radius and still count as a survivor.
const DefaultSurvivorRadius = 470.0

// CountSurvivors counts members who are online and still near where they
// were last seen inside the kick radius. A member who is offline, never
// entered, or is now far away (a respawn elsewhere) is not a survivor.
// Zero survivors is treated as a team wipe.
func CountSurvivors(c *Claim, roster players.Roster, radius float64) int {
	if radius <= 0 {
		radius = DefaultSurvivorRadius
	}
	n := 0
	for _, m := range c.Members {
		last, seen := c.LastInside[m.Name]
		if !seen {
			continue
		}
		p, online := roster.Lookup(m.Name)
		if !online {
			continue
		}
		if geo.Within(last, p.Position, radius) {
			n++
		}
	}
	return n
}
