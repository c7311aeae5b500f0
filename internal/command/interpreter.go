// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/players"
)

// Broadcaster delivers a message to every player on the server.
type Broadcaster interface {
	Broadcast(text string)
}

// Interpreter turns inbound chat lines into command executions and
// broadcasts their results.
type Interpreter struct {
	dispatcher  *Dispatcher
	services    *Services
	broadcaster Broadcaster
	deduper     *Deduper
	logger      *slog.Logger
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithDeduper drops redelivered chat lines.
func WithDeduper(d *Deduper) InterpreterOption {
	return func(i *Interpreter) { i.deduper = d }
}

// WithInterpreterLogger sets the logger.
func WithInterpreterLogger(l *slog.Logger) InterpreterOption {
	return func(i *Interpreter) { i.logger = l }
}

// NewInterpreter creates an interpreter. Services are validated up front.
func NewInterpreter(d *Dispatcher, svc *Services, b Broadcaster, opts ...InterpreterOption) (*Interpreter, error) {
	if d == nil || b == nil {
		return nil, oops.Code(CodeNilServices).Errorf("dispatcher and broadcaster are required")
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	i := &Interpreter{
		dispatcher:  d,
		services:    svc,
		broadcaster: b,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// HandleChat processes one chat line. Lines that are not commands are
// ignored. Rejections are broadcast as player-facing text and do not fail
// the call; only CodeUnavailable is returned.
func (i *Interpreter) HandleChat(ctx context.Context, player, message string) error {
	if i.deduper != nil && i.deduper.Seen(player, message) {
		DuplicateMessages.Inc()
		i.logger.DebugContext(ctx, "duplicate chat line dropped", "player", player)
		return nil
	}

	var out bytes.Buffer
	exec := &CommandExecution{
		ID:         ulid.Make(),
		Player:     strings.TrimSpace(player),
		PlayerName: players.NormalizeName(player),
		Output:     &out,
		Services:   i.services,
	}

	err := i.dispatcher.Dispatch(ctx, message, exec)
	if err != nil {
		oopsErr, ok := oops.AsOops(err)
		if ok {
			switch oopsErr.Code() {
			case CodeUnknownCommand, CodeEmptyInput:
				return nil
			case CodeUnavailable:
				i.logger.ErrorContext(ctx, "command could not be served",
					"player", player,
					"command_id", exec.ID.String(),
					"error", err)
				return err
			}
		}
		i.broadcaster.Broadcast(PlayerMessage(err))
		return nil
	}

	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			i.broadcaster.Broadcast(line)
		}
	}
	return nil
}
