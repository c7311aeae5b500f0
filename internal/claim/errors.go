// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package claim

import (
	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/poi"
)

// Error codes for rejected claim operations. Every error carries the
// "poi" (display name) context key and, where relevant, "player" and
// "owner" display names.
const (
	CodeAlreadyClaimed          = "ALREADY_CLAIMED"
	CodePositionUnavailable     = "POSITION_UNAVAILABLE"
	CodeAlreadyClaimedThisCycle = "ALREADY_CLAIMED_THIS_CYCLE"
	CodeTooFarAway              = "TOO_FAR_AWAY"
	CodeUnknownPOI              = "UNKNOWN_POI"
	CodeNotActivelyClaimed      = "NOT_ACTIVELY_CLAIMED"
	CodeAlreadyMember           = "ALREADY_MEMBER"
	CodeAlreadyEngaged          = "ALREADY_ENGAGED"
	CodeCannotVerifyPosition    = "CANNOT_VERIFY_POSITION"
	CodeTooFarFromLeader        = "TOO_FAR_FROM_LEADER"
	CodeNotClaimed              = "NOT_CLAIMED"
	CodeNotOwner                = "NOT_OWNER"
)

func poiContext(def *poi.Definition, player string) []any {
	return []any{"poi", def.Name, "poi_id", def.ID, "player", player}
}

func errAlreadyClaimed(def *poi.Definition, player string) error {
	return oops.Code(CodeAlreadyClaimed).With(poiContext(def, player)...).Errorf("%s is already claimed or on cooldown", def.Name)
}

func errPositionUnavailable(def *poi.Definition, player string) error {
	return oops.Code(CodePositionUnavailable).With(poiContext(def, player)...).Errorf("no position for %s", player)
}

func errAlreadyClaimedThisCycle(def *poi.Definition, player string) error {
	return oops.Code(CodeAlreadyClaimedThisCycle).With(poiContext(def, player)...).Errorf("%s already claimed %s this cycle", player, def.Name)
}

func errTooFarAway(def *poi.Definition, player string, distance, limit float64) error {
	return oops.Code(CodeTooFarAway).With(poiContext(def, player)...).
		With("distance", distance).
		With("limit", limit).
		Errorf("%s is %.0f from %s", player, distance, def.Name)
}

// ErrUnknownPOI is returned when an operation names a POI the catalog lacks.
func ErrUnknownPOI(input, player string) error {
	return oops.Code(CodeUnknownPOI).
		With("input", input).
		With("player", player).
		Errorf("unknown poi %q", input)
}

func errNotActivelyClaimed(def *poi.Definition, player string) error {
	return oops.Code(CodeNotActivelyClaimed).With(poiContext(def, player)...).Errorf("%s is not actively claimed", def.Name)
}

func errAlreadyMember(def *poi.Definition, player string) error {
	return oops.Code(CodeAlreadyMember).With(poiContext(def, player)...).Errorf("%s is already in the %s group", player, def.Name)
}

func errAlreadyEngaged(def *poi.Definition, player, owner string) error {
	return oops.Code(CodeAlreadyEngaged).With(poiContext(def, player)...).With("owner", owner).Errorf("%s group already entered", def.Name)
}

func errCannotVerifyPosition(def *poi.Definition, player string) error {
	return oops.Code(CodeCannotVerifyPosition).With(poiContext(def, player)...).Errorf("cannot verify positions for %s", player)
}

func errTooFarFromLeader(def *poi.Definition, player, owner string, distance, limit float64) error {
	return oops.Code(CodeTooFarFromLeader).With(poiContext(def, player)...).
		With("owner", owner).
		With("distance", distance).
		With("limit", limit).
		Errorf("%s is %.0f from %s", player, distance, owner)
}

func errNotClaimed(def *poi.Definition, player string) error {
	return oops.Code(CodeNotClaimed).With(poiContext(def, player)...).Errorf("%s is not claimed", def.Name)
}

func errNotOwner(def *poi.Definition, player, owner string) error {
	return oops.Code(CodeNotOwner).With(poiContext(def, player)...).With("owner", owner).Errorf("%s does not own %s", player, def.Name)
}
