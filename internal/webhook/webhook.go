// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package webhook receives CFTools server events over HTTP and hands chat
// lines to the command interpreter.
package webhook

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

// Event header names and values sent by CFTools.
const (
	HeaderEvent     = "X-Hephaistos-Event"
	HeaderDelivery  = "X-Hephaistos-Delivery"
	HeaderSignature = "X-Hephaistos-Signature"

	EventVerification = "verification"
	EventChat         = "user.chat"
)

// Path is the route events are posted to.
const Path = "/webhook"

// MaxBodyBytes bounds the accepted request body.
const MaxBodyBytes = 64 << 10

// CodeMissingSecret is returned by New without a shared secret.
const CodeMissingSecret = "WEBHOOK_MISSING_SECRET"

var requests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "claimwarden_webhook_requests_total",
	Help: "Webhook deliveries by event and response status",
}, []string{"event", "status"})

// RegisterMetrics registers webhook metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(requests)
}

// ChatHandler consumes one chat line. A returned error is an internal
// failure; player-facing rejections are handled by the implementation.
type ChatHandler interface {
	HandleChat(ctx context.Context, player, message string) error
}

// chatEvent is the user.chat payload.
type chatEvent struct {
	Message    *string `json:"message"`
	PlayerName *string `json:"player_name"`
}

// Handler validates and routes webhook deliveries.
type Handler struct {
	secret  string
	chat    ChatHandler
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithTimeout bounds how long one delivery may take. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New creates a Handler. secret must be non-empty.
func New(secret string, chat ChatHandler, opts ...Option) (*Handler, error) {
	if secret == "" {
		return nil, oops.Code(CodeMissingSecret).
			Hint("set CF_WEBHOOK_SECRET").
			Errorf("webhook secret is required")
	}
	if chat == nil {
		return nil, oops.Code("WEBHOOK_NIL_HANDLER").Errorf("chat handler is required")
	}
	h := &Handler{
		secret:  secret,
		chat:    chat,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes returns the HTTP handler serving Path.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}
	r.Post(Path, h.receive)
	return r
}

// Sign returns the signature CFTools sends for delivery.
func Sign(delivery, secret string) string {
	sum := sha256.Sum256([]byte(delivery + secret))
	return hex.EncodeToString(sum[:])
}

// ValidSignature reports whether signature matches delivery and secret.
func ValidSignature(delivery, signature, secret string) bool {
	if delivery == "" || signature == "" {
		return false
	}
	expected := Sign(delivery, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get(HeaderEvent)

	if event == EventVerification {
		h.logger.InfoContext(r.Context(), "received verification ping")
		h.respond(w, event, http.StatusNoContent)
		return
	}

	delivery := r.Header.Get(HeaderDelivery)
	if !ValidSignature(delivery, r.Header.Get(HeaderSignature), h.secret) {
		h.logger.WarnContext(r.Context(), "rejected webhook with invalid signature",
			"event", event,
			"delivery", delivery,
			"remote", r.RemoteAddr)
		h.respond(w, event, http.StatusForbidden)
		return
	}

	if event != EventChat {
		h.respond(w, event, http.StatusNoContent)
		return
	}

	var payload chatEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&payload); err != nil || payload.Message == nil || payload.PlayerName == nil {
		h.logger.WarnContext(r.Context(), "malformed chat event", "delivery", delivery, "error", err)
		h.respond(w, event, http.StatusBadRequest)
		return
	}

	h.logger.DebugContext(r.Context(), "game chat",
		"player", *payload.PlayerName,
		"delivery", delivery)

	if err := h.chat.HandleChat(r.Context(), *payload.PlayerName, *payload.Message); err != nil {
		errutil.LogError(h.logger, "chat event failed", err, "delivery", delivery)
		h.respond(w, event, http.StatusInternalServerError)
		return
	}
	h.respond(w, event, http.StatusNoContent)
}

func (h *Handler) respond(w http.ResponseWriter, event string, status int) {
	requests.WithLabelValues(eventLabel(event), strconv.Itoa(status)).Inc()
	w.WriteHeader(status)
}

// eventLabel keeps the metric label set bounded.
func eventLabel(event string) string {
	switch event {
	case EventVerification, EventChat:
		return event
	case "":
		return "none"
	default:
		return "other"
	}
}
