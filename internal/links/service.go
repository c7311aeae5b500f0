// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

// DefaultQueueSize bounds pending link writes.
const DefaultQueueSize = 128

var writes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "claimwarden_link_writes_total",
	Help: "Platform link writes by result",
}, []string{"result"})

// RegisterMetrics registers link metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(writes)
}

// Service records links without blocking the caller. Link updates an
// in-process view immediately and persists through a single writer
// goroutine started by Run.
type Service struct {
	store  Store
	queue  chan Link
	clock  func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	recent map[string]string
	closed bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithQueueSize sets the write queue capacity.
func WithQueueSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.queue = make(chan Link, n)
		}
	}
}

// WithServiceClock overrides time.Now for link timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = now }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		queue:  make(chan Link, DefaultQueueSize),
		clock:  time.Now,
		logger: slog.Default(),
		recent: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Link records platformID for player. It never waits on storage.
func (s *Service) Link(_ context.Context, player, platformID string) error {
	key := players.NormalizeName(player)
	if key == "" {
		return oops.Code(CodeStoreFailed).Errorf("player name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return oops.Code(CodeClosed).With("player", player).Errorf("link service is closed")
	}
	s.recent[key] = platformID

	select {
	case s.queue <- Link{Player: key, PlatformID: platformID, LinkedAt: s.clock()}:
		return nil
	default:
		writes.WithLabelValues("dropped").Inc()
		return oops.Code(CodeQueueFull).With("player", player).Errorf("link queue is full")
	}
}

// Lookup returns the platform id linked to player.
func (s *Service) Lookup(ctx context.Context, player string) (string, bool, error) {
	key := players.NormalizeName(player)

	s.mu.RLock()
	id, ok := s.recent[key]
	s.mu.RUnlock()
	if ok {
		return id, true, nil
	}

	l, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	s.mu.Lock()
	s.recent[key] = l.PlatformID
	s.mu.Unlock()
	return l.PlatformID, true, nil
}

// Run persists queued links until ctx is done, then drains what is queued.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			s.drain()
			return nil
		case l := <-s.queue:
			s.persist(ctx, l)
		}
	}
}

func (s *Service) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case l := <-s.queue:
			s.persist(ctx, l)
		default:
			return
		}
	}
}

func (s *Service) persist(ctx context.Context, l Link) {
	if err := s.store.Put(ctx, l); err != nil {
		writes.WithLabelValues("error").Inc()
		errutil.LogError(s.logger, "failed to persist platform link", err, "player", l.Player)
		return
	}
	writes.WithLabelValues("ok").Inc()
	s.logger.Info("platform link stored", "player", l.Player)
}
