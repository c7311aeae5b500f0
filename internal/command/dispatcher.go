// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/claimwarden/claimwarden/internal/logging"
)

var tracer = otel.Tracer("claimwarden/command")

// Dispatcher handles command parsing, rate limiting, and execution.
type Dispatcher struct {
	registry    *Registry
	rateLimiter *RateLimiter // optional, can be nil
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimiter configures the dispatcher to use rate limiting.
// If not provided, rate limiting is disabled.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// NewDispatcher creates a new command dispatcher with the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, oops.Code(CodeNilServices).Errorf("command registry is required")
	}
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch parses and executes a command. Unknown commands are reported with
// CodeUnknownCommand before any rate limiting applies.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, exec *CommandExecution) (err error) {
	if err := exec.Services.Validate(); err != nil {
		return err
	}

	parsed, err := Parse(input)
	if err != nil {
		return err
	}

	entry, ok := d.registry.Get(parsed.Name)
	if !ok {
		return ErrUnknownCommand(parsed.Name)
	}

	recorder := NewMetricsRecorder()
	recorder.SetCommandName(entry.Name)
	defer recorder.Record()

	ctx = logging.ContextWith(ctx,
		slog.String("command_id", exec.ID.String()),
		slog.String("command", entry.Name))
	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", entry.Name),
			attribute.String("command.invoked_as", parsed.Name),
			attribute.String("command.id", exec.ID.String()),
			attribute.String("player", exec.PlayerName),
		),
	)
	defer func() {
		if err != nil {
			recorder.SetStatus(status(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.rateLimiter != nil {
		allowed, cooldownMs := d.rateLimiter.Allow(exec.PlayerName)
		if !allowed {
			span.SetAttributes(attribute.Bool("command.rate_limited", true))
			span.SetAttributes(attribute.Int64("command.cooldown_ms", cooldownMs))
			return ErrRateLimited(exec.Player, cooldownMs)
		}
	}

	exec.Args = parsed.Args
	exec.InvokedAs = parsed.Name
	if perr := oops.Recover(func() { err = entry.Handler(ctx, exec) }); perr != nil {
		err = perr
		slog.ErrorContext(ctx, "command handler panicked",
			"player", exec.Player,
			"error", perr)
		return err
	}
	if err != nil {
		slog.InfoContext(ctx, "command rejected",
			"player", exec.Player,
			"error", err)
	}
	return err
}

func status(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return StatusError
	}
	switch oopsErr.Code() {
	case CodeRateLimited:
		return StatusRateLimited
	case CodeUnavailable, "", nil:
		return StatusError
	default:
		return StatusRejected
	}
}
