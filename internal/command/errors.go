// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/claim"
)

// Error codes for command dispatch failures.
const (
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeInvalidArgs      = "INVALID_ARGS"
	CodeWorldError       = "WORLD_ERROR"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNilServices      = "NIL_SERVICES"
	CodeInvalidExclusion = "INVALID_EXCLUSION"
	CodeInvalidEntry     = "INVALID_ENTRY"
	CodeUnavailable      = "UNAVAILABLE"
	CodeEmptyInput       = "EMPTY_INPUT"
)

const fallbackMessage = "Something went wrong. Try again."

// ErrUnknownCommand creates an error for an unknown command.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// WorldError creates an error carrying a player-facing message. The cause is
// recorded as text only, so its own code does not replace CodeWorldError.
func WorldError(message string, cause error) error {
	builder := oops.Code(CodeWorldError).With("message", message)
	if cause != nil {
		return builder.With("cause", cause.Error()).Errorf("%s: %v", message, cause)
	}
	return builder.Errorf("%s", message)
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(player string, cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("player", player).
		With("cooldown_ms", cooldownMs).
		Errorf("too many commands from %s", player)
}

// ErrUnavailable marks a failure of the serialization loop itself. It is the
// only command error surfaced to the webhook caller.
func ErrUnavailable(cause error) error {
	return oops.Code(CodeUnavailable).
		With("cause", cause.Error()).
		Errorf("claim engine unavailable: %v", cause)
}

// ErrInvalidEntry creates an error for a malformed command registration.
func ErrInvalidEntry(reason string) error {
	return oops.Code(CodeInvalidEntry).Errorf("invalid command entry: %s", reason)
}

// PlayerMessage extracts a player-facing message from an error.
func PlayerMessage(err error) string {
	if err == nil {
		return fallbackMessage
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return fallbackMessage
	}

	ctx := oopsErr.Context()
	str := func(key string) string {
		s, _ := ctx[key].(string)
		return s
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeInvalidArgs:
		if usage := str("usage"); usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeWorldError:
		if msg := str("message"); msg != "" {
			return msg
		}
		return fallbackMessage
	case CodeRateLimited:
		if p := str("player"); p != "" {
			return p + ", too many commands. Please slow down."
		}
		return "Too many commands. Please slow down."

	case claim.CodeUnknownPOI:
		return fmt.Sprintf("Invalid POI: %s.", str("input"))
	case claim.CodeAlreadyClaimed:
		return fmt.Sprintf("%s is already claimed or on cooldown.", str("poi"))
	case claim.CodePositionUnavailable:
		return "Could not verify your position. Please relog."
	case claim.CodeAlreadyClaimedThisCycle:
		return fmt.Sprintf("%s, you or your group have already claimed %s this restart.", str("player"), str("poi"))
	case claim.CodeTooFarAway:
		limit, _ := ctx["limit"].(float64)
		return fmt.Sprintf("%s is too far away. Move within %.0fm to claim.", str("player"), limit)
	case claim.CodeNotActivelyClaimed:
		return fmt.Sprintf("%s is not actively claimed.", str("poi"))
	case claim.CodeAlreadyMember:
		return fmt.Sprintf("%s, you are already in the %s group.", str("player"), str("poi"))
	case claim.CodeAlreadyEngaged:
		return fmt.Sprintf("%s's group has already entered %s. You can no longer join.", str("owner"), str("poi"))
	case claim.CodeCannotVerifyPosition:
		return "Could not verify positions. Please relog."
	case claim.CodeTooFarFromLeader:
		limit, _ := ctx["limit"].(float64)
		return fmt.Sprintf("%s is too far from %s. Move within %.0fm to join.", str("player"), str("owner"), limit)
	case claim.CodeNotClaimed:
		return fmt.Sprintf("%s is not claimed.", str("poi"))
	case claim.CodeNotOwner:
		return fmt.Sprintf("You cannot cancel claim on %s. Claimed by %s.", str("poi"), str("owner"))
	default:
		return fallbackMessage
	}
}
