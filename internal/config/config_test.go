// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/internal/warden"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claimwarden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 5*time.Second, cfg.Enforcement.TickInterval)
	assert.Equal(t, "Etc/GMT-1", cfg.Enforcement.ResetZone)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
catalog:
  match_threshold: 0.7
  exclusions: ["*event*", "tisy*"]
claims:
  duration: 30m
enforcement:
  tick_interval: 2s
  intrusion_radius: 400
commands:
  burst_capacity: 3
`)
	cfg, err := Load(LoadOptions{File: path, Environ: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.InDelta(t, 0.7, cfg.Catalog.MatchThreshold, 1e-9)
	assert.Equal(t, []string{"*event*", "tisy*"}, cfg.Catalog.Exclusions)
	assert.Equal(t, 30*time.Minute, cfg.Claims.Duration)
	assert.Equal(t, 2*time.Second, cfg.Enforcement.TickInterval)
	assert.InDelta(t, 400.0, cfg.Enforcement.IntrusionRadius, 1e-9)
	assert.Equal(t, 3, cfg.Commands.BurstCapacity)

	// untouched keys keep their defaults
	assert.Equal(t, Default().Claims.ExtendedDuration, cfg.Claims.ExtendedDuration)
	assert.Equal(t, Default().Server.MetricsAddr, cfg.Server.MetricsAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeLoadFailed)
}

func TestLoad_Environment(t *testing.T) {
	cfg, err := Load(LoadOptions{Environ: map[string]string{
		"CF_WEBHOOK_SECRET":          "hook",
		"PORT":                       "3000",
		"CFTOOLS_APPLICATION_ID":     "app",
		"CFTOOLS_APPLICATION_SECRET": "key",
		"CFTOOLS_SERVER_API_ID":      "server",
		"DATABASE_URL":               "postgres://u:p@db/links",
	}})
	require.NoError(t, err)

	assert.Equal(t, "hook", cfg.Webhook.Secret)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "app", cfg.CFTools.ApplicationID)
	assert.Equal(t, "key", cfg.CFTools.Secret)
	assert.Equal(t, "server", cfg.CFTools.ServerID)
	assert.Equal(t, "postgres://u:p@db/links", cfg.Links.DSN)
}

func TestLoad_NonNumericPort(t *testing.T) {
	_, err := Load(LoadOptions{Environ: map[string]string{"PORT": "http"}})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeInvalidConfig)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
webhook:
  secret: from-file
log:
  level: debug
`)
	cfg, err := Load(LoadOptions{
		Flags:   newFlags(t, "--config", path, "--addr", ":7000", "--tick-interval", "10s"),
		Environ: map[string]string{"CF_WEBHOOK_SECRET": "from-env", "PORT": "3000"},
	})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "flags beat environment")
	assert.Equal(t, "from-env", cfg.Webhook.Secret, "environment beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "file beats defaults")
	assert.Equal(t, 10*time.Second, cfg.Enforcement.TickInterval)
	assert.Equal(t, "json", cfg.Log.Format, "unset flags do not override")
}

func validConfig() *Config {
	cfg := Default()
	cfg.Webhook.Secret = "hook"
	return &cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Webhook.Secret = "" }},
		{"threshold above one", func(c *Config) { c.Catalog.MatchThreshold = 1.5 }},
		{"bad exclusion", func(c *Config) { c.Catalog.Exclusions = []string{"[unclosed"} }},
		{"zero tick", func(c *Config) { c.Enforcement.TickInterval = 0 }},
		{"extended shorter than default", func(c *Config) { c.Claims.ExtendedDuration = time.Minute }},
		{"liveness below poll", func(c *Config) { c.Players.Liveness = 100 * time.Millisecond }},
		{"unknown zone", func(c *Config) { c.Enforcement.ResetZone = "Mars/Olympus" }},
		{"slow rate", func(c *Config) { c.Commands.SustainedRate = 0.01 }},
		{"no burst", func(c *Config) { c.Commands.BurstCapacity = 0 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, CodeInvalidConfig)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.Secret = ""
	cfg.Notify.QueueSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CF_WEBHOOK_SECRET")
	assert.Contains(t, err.Error(), "notify.queue_size")
}

func TestWarden(t *testing.T) {
	cfg := validConfig()
	cfg.Enforcement.ResetZone = "UTC"
	cfg.Claims.Duration = 20 * time.Minute

	w, err := cfg.Warden()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, w.ResetLocation)
	assert.Equal(t, 20*time.Minute, w.Claims.Duration)
	assert.Equal(t, warden.DefaultTimerResolution, w.TimerResolution)
	assert.Equal(t, cfg.Enforcement.IntrusionRadius, w.IntrusionRadius)
}

func TestCFToolsClientAndRateLimiter(t *testing.T) {
	cfg := validConfig()
	cfg.CFTools.ApplicationID = "app"
	cfg.CFTools.ServerID = "server"

	cc := cfg.CFToolsClient()
	assert.Equal(t, "app", cc.ApplicationID)
	assert.Equal(t, "server", cc.ServerID)
	assert.Equal(t, cfg.CFTools.BaseURL, cc.BaseURL)

	rl := cfg.RateLimiter()
	assert.Equal(t, cfg.Commands.BurstCapacity, rl.BurstCapacity)
	assert.InDelta(t, cfg.Commands.SustainedRate, rl.SustainedRate, 1e-9)
}

func TestDiscoverFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	assert.Empty(t, DiscoverFile())

	path := filepath.Join(home, "claimwarden", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	assert.Equal(t, path, DiscoverFile())

	cfg, err := Load(LoadOptions{File: DiscoverFile(), Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
