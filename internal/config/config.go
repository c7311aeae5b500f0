// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package config loads ClaimWarden settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/claimwarden/claimwarden/internal/cftools"
	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/notify"
	"github.com/claimwarden/claimwarden/internal/players"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
	"github.com/claimwarden/claimwarden/internal/xdg"
)

// Error codes.
const (
	CodeLoadFailed    = "CONFIG_LOAD_FAILED"
	CodeInvalidConfig = "CONFIG_INVALID"
)

// Config is the complete service configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Webhook     WebhookConfig     `koanf:"webhook"`
	CFTools     CFToolsConfig     `koanf:"cftools"`
	Links       LinksConfig       `koanf:"links"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Players     PlayersConfig     `koanf:"players"`
	Claims      ClaimsConfig      `koanf:"claims"`
	Enforcement EnforcementConfig `koanf:"enforcement"`
	Commands    CommandsConfig    `koanf:"commands"`
	Notify      NotifyConfig      `koanf:"notify"`
	Log         LogConfig         `koanf:"log"`
}

// ServerConfig holds listen addresses.
type ServerConfig struct {
	Addr        string `koanf:"addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// WebhookConfig holds the inbound webhook settings.
type WebhookConfig struct {
	Secret  string        `koanf:"secret"`
	Timeout time.Duration `koanf:"timeout"`
}

// CFToolsConfig holds the game-server API credentials.
type CFToolsConfig struct {
	BaseURL       string        `koanf:"base_url"`
	ApplicationID string        `koanf:"application_id"`
	Secret        string        `koanf:"secret"`
	ServerID      string        `koanf:"server_id"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxRetries    int           `koanf:"max_retries"`
}

// LinksConfig selects the platform-link backend. See links.Open.
type LinksConfig struct {
	DSN string `koanf:"dsn"`
}

// CatalogConfig controls POI loading and name matching.
type CatalogConfig struct {
	// File replaces the embedded catalog when set.
	File           string   `koanf:"file"`
	MatchThreshold float64  `koanf:"match_threshold"`
	Exclusions     []string `koanf:"exclusions"`
}

// PlayersConfig controls the snapshot poller.
type PlayersConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	Liveness     time.Duration `koanf:"liveness"`
}

// ClaimsConfig holds claim durations and distances.
type ClaimsConfig struct {
	Duration         time.Duration `koanf:"duration"`
	ExtendedDuration time.Duration `koanf:"extended_duration"`
	CooldownDuration time.Duration `koanf:"cooldown_duration"`
	GroupingRadius   float64       `koanf:"grouping_radius"`
	ReturnRadius     float64       `koanf:"return_radius"`
}

// EnforcementConfig holds the zone enforcement timings and thresholds.
type EnforcementConfig struct {
	TickInterval      time.Duration `koanf:"tick_interval"`
	IntrusionRadius   float64       `koanf:"intrusion_radius"`
	AbandonAfter      time.Duration `koanf:"abandon_after"`
	Countdown         time.Duration `koanf:"countdown"`
	IntrusionCooldown time.Duration `koanf:"intrusion_cooldown"`
	GraceDuration     time.Duration `koanf:"grace_duration"`
	EvictionDelay     time.Duration `koanf:"eviction_delay"`
	SurvivorRadius    float64       `koanf:"survivor_radius"`
	ResetInterval     time.Duration `koanf:"reset_interval"`
	ResetZone         string        `koanf:"reset_zone"`
}

// CommandsConfig holds chat command throttling.
type CommandsConfig struct {
	DedupeWindow  time.Duration `koanf:"dedupe_window"`
	BurstCapacity int           `koanf:"burst_capacity"`
	SustainedRate float64       `koanf:"sustained_rate"`
}

// NotifyConfig sizes the outbound queue.
type NotifyConfig struct {
	QueueSize int           `koanf:"queue_size"`
	Timeout   time.Duration `koanf:"timeout"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// environment lists the variables read from the process environment.
type environment struct {
	WebhookSecret  string `env:"CF_WEBHOOK_SECRET"`
	Port           string `env:"PORT"`
	ApplicationID  string `env:"CFTOOLS_APPLICATION_ID"`
	ApplicationKey string `env:"CFTOOLS_APPLICATION_SECRET"`
	ServerID       string `env:"CFTOOLS_SERVER_API_ID"`
	DatabaseURL    string `env:"DATABASE_URL"`
}

// Default returns the stock configuration.
func Default() Config {
	w := warden.DefaultConfig()
	c := claim.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: "127.0.0.1:9100",
		},
		Webhook: WebhookConfig{Timeout: 30 * time.Second},
		CFTools: CFToolsConfig{
			BaseURL:    cftools.DefaultBaseURL,
			Timeout:    cftools.DefaultTimeout,
			MaxRetries: cftools.DefaultMaxRetries,
		},
		Links: LinksConfig{DSN: "memory"},
		Catalog: CatalogConfig{
			MatchThreshold: poi.DefaultMatchThreshold,
		},
		Players: PlayersConfig{
			PollInterval: players.DefaultPollInterval,
			Liveness:     players.DefaultLiveness,
		},
		Claims: ClaimsConfig{
			Duration:         c.Duration,
			ExtendedDuration: c.ExtendedDuration,
			CooldownDuration: c.CooldownDuration,
			GroupingRadius:   c.GroupingRadius,
			ReturnRadius:     c.ReturnRadius,
		},
		Enforcement: EnforcementConfig{
			TickInterval:      w.TickInterval,
			IntrusionRadius:   w.IntrusionRadius,
			AbandonAfter:      w.AbandonAfter,
			Countdown:         w.Countdown,
			IntrusionCooldown: w.IntrusionCooldown,
			GraceDuration:     w.GraceDuration,
			EvictionDelay:     w.EvictionDelay,
			SurvivorRadius:    w.SurvivorRadius,
			ResetInterval:     w.ResetInterval,
			ResetZone:         warden.DefaultResetZone,
		},
		Commands: CommandsConfig{
			DedupeWindow:  command.DefaultDedupeWindow,
			BurstCapacity: command.DefaultBurstCapacity,
			SustainedRate: command.DefaultSustainedRate,
		},
		Notify: NotifyConfig{
			QueueSize: notify.DefaultQueueSize,
			Timeout:   notify.DefaultTimeout,
		},
		Log: LogConfig{Format: "json", Level: "info"},
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":          "server.addr",
	"metrics-addr":  "server.metrics_addr",
	"catalog":       "catalog.file",
	"links-dsn":     "links.dsn",
	"tick-interval": "enforcement.tick_interval",
	"log-format":    "log.format",
	"log-level":     "log.level",
}

// RegisterFlags adds the overridable settings to fs. Flags only take effect
// when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("addr", d.Server.Addr, "webhook listen address")
	fs.String("metrics-addr", d.Server.MetricsAddr, "metrics and health listen address (empty disables)")
	fs.String("catalog", "", "POI catalog file replacing the built-in catalog")
	fs.String("links-dsn", d.Links.DSN, "platform link store: memory, sqlite://<path> or postgres://...")
	fs.Duration("tick-interval", d.Enforcement.TickInterval, "zone enforcement interval")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is a YAML file path, usually DiscoverFile(). Empty skips the
	// file; when Flags carries a --config value it is used instead.
	File  string
	Flags *pflag.FlagSet
	// Environ replaces the process environment, for tests.
	Environ map[string]string
}

// DiscoverFile returns the XDG config file path when it exists, or "".
func DiscoverFile() string {
	path, err := xdg.ConfigFile()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load assembles the configuration. The result is not validated.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	path := opts.File
	if opts.Flags != nil {
		if f := opts.Flags.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeLoadFailed).With("file", path).Wrap(err)
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeLoadFailed).With("file", path).Wrap(err)
	}

	if err := applyEnvironment(&cfg, opts.Environ); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		fk := koanf.New(".")
		provider := posflag.ProviderWithFlag(opts.Flags, ".", fk, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := fk.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeLoadFailed).With("source", "flags").Wrap(err)
		}
		if err := fk.Unmarshal("", &cfg); err != nil {
			return nil, oops.Code(CodeLoadFailed).With("source", "flags").Wrap(err)
		}
	}
	return &cfg, nil
}

func applyEnvironment(cfg *Config, environ map[string]string) error {
	var e environment
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return oops.Code(CodeLoadFailed).With("source", "environment").Wrap(err)
	}
	if e.WebhookSecret != "" {
		cfg.Webhook.Secret = e.WebhookSecret
	}
	if e.Port != "" {
		if _, err := strconv.Atoi(e.Port); err != nil {
			return oops.Code(CodeInvalidConfig).With("PORT", e.Port).Errorf("PORT must be numeric")
		}
		cfg.Server.Addr = ":" + e.Port
	}
	if e.ApplicationID != "" {
		cfg.CFTools.ApplicationID = e.ApplicationID
	}
	if e.ApplicationKey != "" {
		cfg.CFTools.Secret = e.ApplicationKey
	}
	if e.ServerID != "" {
		cfg.CFTools.ServerID = e.ServerID
	}
	if e.DatabaseURL != "" {
		cfg.Links.DSN = e.DatabaseURL
	}
	return nil
}
