// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package warden

import (
	"fmt"
	"time"
)

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}

func msgReset() string {
	return "All POI claims have been reset for the new server cycle."
}

func msgCooldown(poi string, d time.Duration) string {
	return fmt.Sprintf("%s is now on a %d-minute cooldown.", poi, minutes(d))
}

func msgWipe(poi string, grace time.Duration) string {
	return fmt.Sprintf("A team wipe was detected at %s. Your group may return for gear. A %d-min timer will start when each member arrives.", poi, minutes(grace))
}

func msgGraceStarted(player, poi string, grace time.Duration) string {
	return fmt.Sprintf("%s has returned to %s. Your %d-minute gear retrieval timer has begun!", player, poi, minutes(grace))
}

func msgAvailable(poi string) string {
	return fmt.Sprintf("%s is now available to claim again!", poi)
}

func msgDynamicExpired(poi string) string {
	return fmt.Sprintf("%s claim has expired.", poi)
}

func msgHardCap(poi string) string {
	return fmt.Sprintf("Warning: The claim on %s has expired. All members will be removed.", poi)
}

func msgRestricted(player string, countdown time.Duration) string {
	return fmt.Sprintf("Warning: %s, you are in a restricted area. You will be removed in %d seconds if you do not leave.", player, int(countdown/time.Second))
}

func msgIntrusion(player, poi string) string {
	return fmt.Sprintf("Warning: %s, you are near %s, you need to claim it to run it.", player, poi)
}
