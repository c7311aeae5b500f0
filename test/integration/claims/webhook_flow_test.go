// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

//go:build integration

package claims_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/command/handlers"
	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/links"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
	"github.com/claimwarden/claimwarden/internal/webhook"
)

const secret = "integration-secret"

// recorder collects everything the engine and interpreter send to the server.
type recorder struct {
	mu        sync.Mutex
	lines     []string
	teleports []notify.Teleport
}

func (r *recorder) Broadcast(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *recorder) Teleport(t notify.Teleport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teleports = append(r.teleports, t)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func catalog() *poi.Catalog {
	c, err := poi.New([]poi.Definition{{
		ID:        "green-mountain-t3",
		Name:      "Green Mountain T3",
		ShortName: "Green Mountain",
		Aliases:   []string{"gm"},
		Zone: &poi.Zone{
			Center:     geo.Vec2{X: 1000, Y: 1000},
			KickRadius: 150,
			Safe:       geo.Vec3{X: 10, Y: 20, Z: 5},
		},
	}})
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Chat commands over the webhook", func() {
	var (
		rec    *recorder
		cache  *players.Cache
		engine *warden.Engine
		server *httptest.Server
		cancel context.CancelFunc
		done   chan struct{}
	)

	deliver := func(player, message string, signed bool) int {
		body := `{"message":"` + message + `","player_name":"` + player + `"}`
		req, err := http.NewRequest(http.MethodPost, server.URL+webhook.Path, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		delivery := player + "|" + message
		req.Header.Set(webhook.HeaderEvent, webhook.EventChat)
		req.Header.Set(webhook.HeaderDelivery, delivery)
		if signed {
			req.Header.Set(webhook.HeaderSignature, webhook.Sign(delivery, secret))
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Body.Close()).To(Succeed())
		return resp.StatusCode
	}

	place := func(display string, x, y float64) {
		cache.Upsert(time.Now(), []players.Snapshot{{
			Name:        players.NormalizeName(display),
			DisplayName: display,
			Position:    geo.Vec2{X: x, Y: y},
			LastSeen:    time.Now(),
		}})
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		rec = &recorder{}
		cache = players.NewCache(time.Minute)
		cat := catalog()
		cfg := warden.DefaultConfig()
		cfg.TickInterval = time.Hour // enforcement is covered by the warden tests
		engine = warden.New(cfg, cat, cache, rec, warden.WithLogger(logger))

		registry := command.NewRegistry()
		handlers.RegisterAll(registry)
		dispatcher, err := command.NewDispatcher(registry)
		Expect(err).NotTo(HaveOccurred())
		exclusions, err := command.NewExclusions(nil)
		Expect(err).NotTo(HaveOccurred())
		interpreter, err := command.NewInterpreter(dispatcher, &command.Services{
			Engine:     engine,
			Resolver:   poi.NewResolver(cat),
			Links:      links.NewService(links.NewMemoryStore()),
			Exclusions: exclusions,
			Registry:   registry,
		}, rec, command.WithInterpreterLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		hook, err := webhook.New(secret, interpreter, webhook.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(hook.Routes())

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			_ = engine.Run(ctx)
		}()

		place("Survivor", 1000, 1000)
		place("Friend", 1010, 1000)
		place("Bandit", 5000, 5000)
	})

	AfterEach(func() {
		server.Close()
		cancel()
		Eventually(done).Should(BeClosed())
	})

	claimOwner := func() string {
		var owner string
		Expect(engine.Do(context.Background(), func(tx *warden.Tx) {
			if c, ok := tx.Claims.Get("green-mountain-t3"); ok {
				owner = c.Owner
			}
		})).To(Succeed())
		return owner
	}

	It("claims a POI and groups nearby players", func() {
		Expect(deliver("Survivor", "!claim gm", true)).To(Equal(http.StatusNoContent))

		Eventually(rec.Lines).Should(ContainElement(ContainSubstring("Survivor claimed Green Mountain T3 with Friend")))
		Expect(claimOwner()).To(Equal("survivor"))
	})

	It("reports the claim to other players and refuses a second claim", func() {
		Expect(deliver("Survivor", "!claim gm", true)).To(Equal(http.StatusNoContent))
		Expect(deliver("Bandit", "!check gm", true)).To(Equal(http.StatusNoContent))
		Eventually(rec.Lines).Should(ContainElement(ContainSubstring("Green Mountain T3 is claimed by Survivor")))

		Expect(deliver("Bandit", "!claim gm", true)).To(Equal(http.StatusNoContent))
		Expect(claimOwner()).To(Equal("survivor"))
	})

	It("frees the POI without cooldown on cancel", func() {
		Expect(deliver("Survivor", "!claim gm", true)).To(Equal(http.StatusNoContent))
		Expect(deliver("Survivor", "!cancel gm", true)).To(Equal(http.StatusNoContent))
		Eventually(rec.Lines).Should(ContainElement("Survivor cancelled their claim on Green Mountain T3."))

		Expect(deliver("Friend", "!check gm", true)).To(Equal(http.StatusNoContent))
		Eventually(rec.Lines).Should(ContainElement("Green Mountain T3 is available!"))
		Expect(claimOwner()).To(BeEmpty())
	})

	It("rejects unsigned deliveries without running the command", func() {
		Expect(deliver("Survivor", "!claim gm", false)).To(Equal(http.StatusForbidden))

		Consistently(rec.Lines, 200*time.Millisecond).Should(BeEmpty())
		Expect(claimOwner()).To(BeEmpty())
	})

	It("ignores chat that is not a command", func() {
		Expect(deliver("Survivor", "anyone at gm?", true)).To(Equal(http.StatusNoContent))

		Consistently(rec.Lines, 200*time.Millisecond).Should(BeEmpty())
	})
})
