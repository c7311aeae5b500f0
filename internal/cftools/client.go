// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package cftools is a client for the CFTools Data API: session listing,
// server broadcasts and GameLabs teleport actions.
package cftools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Defaults for the client.
const (
	DefaultBaseURL    = "https://data.cftools.cloud/v1"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryBase  = 250 * time.Millisecond

	// TokenLifetime is how long an issued token is reused before the client
	// registers again.
	TokenLifetime = 24 * time.Hour

	maxRetryDelay = 5 * time.Second
)

// Error codes.
const (
	CodeInvalidConfig = "CFTOOLS_INVALID_CONFIG"
	CodeAuthFailed    = "CFTOOLS_AUTH_FAILED"
	CodeRequestFailed = "CFTOOLS_REQUEST_FAILED"
	CodeBadResponse   = "CFTOOLS_BAD_RESPONSE"
)

// Config holds API credentials and transport settings.
type Config struct {
	BaseURL       string
	ApplicationID string
	Secret        string
	ServerID      string
	Timeout       time.Duration
	MaxRetries    uint64
	RetryBase     time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	return c
}

// Client talks to the CFTools Data API. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	clock  func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock overrides the token expiry clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.clock = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. The application id, secret and server id are required.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	var missing []string
	if cfg.ApplicationID == "" {
		missing = append(missing, "application_id")
	}
	if cfg.Secret == "" {
		missing = append(missing, "secret")
	}
	if cfg.ServerID == "" {
		missing = append(missing, "server_id")
	}
	if len(missing) > 0 {
		return nil, oops.Code(CodeInvalidConfig).
			With("missing", missing).
			Errorf("cftools config is missing %s", strings.Join(missing, ", "))
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.cfg.RetryBase)
	b = retry.WithCappedDuration(maxRetryDelay, b)
	return retry.WithMaxRetries(c.cfg.MaxRetries, b)
}

type authRequest struct {
	ApplicationID string `json:"application_id"`
	Secret        string `json:"secret"`
}

type authResponse struct {
	Token string `json:"token"`
}

// authToken returns a cached token, registering when none is valid.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.token != "" && now.Before(c.expires) {
		return c.token, nil
	}

	var resp authResponse
	status, err := c.send(ctx, http.MethodPost, "/auth/register", "",
		authRequest{ApplicationID: c.cfg.ApplicationID, Secret: c.cfg.Secret}, &resp)
	if err != nil {
		if status >= 400 && status < 500 {
			return "", oops.Code(CodeAuthFailed).With("status", status).Errorf("cftools rejected credentials")
		}
		return "", err
	}
	if resp.Token == "" {
		return "", oops.Code(CodeAuthFailed).Errorf("cftools returned an empty token")
	}

	c.token = resp.Token
	c.expires = now.Add(TokenLifetime)
	c.logger.Info("authenticated with cftools", "expires", c.expires)
	return c.token, nil
}

// invalidate drops token if it is still the cached one.
func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
		c.expires = time.Time{}
	}
}

// do performs an authenticated call with retries. Network failures and 5xx
// responses are retried with exponential backoff; a 401 drops the token and
// is retried once with a fresh one.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	reauthed := false
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		token, err := c.authToken(ctx)
		if err != nil {
			return err
		}
		status, err := c.send(ctx, method, path, token, body, out)
		if status == http.StatusUnauthorized && !reauthed {
			reauthed = true
			c.invalidate(token)
			return retry.RetryableError(err)
		}
		return err
	})
}

// send performs one request. Transient failures are marked retryable.
func (c *Client) send(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, oops.Code(CodeRequestFailed).With("path", path).Wrap(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, oops.Code(CodeRequestFailed).With("path", path).Wrap(err)
	}
	req.Header.Set("User-Agent", c.cfg.ApplicationID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, oops.Code(CodeRequestFailed).With("path", path).Wrap(ctx.Err())
		}
		return 0, retry.RetryableError(oops.Code(CodeRequestFailed).With("path", path).Wrap(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := oops.Code(CodeRequestFailed).
			With("path", path).
			With("status", resp.StatusCode).
			With("body", string(snippet)).
			Errorf("cftools %s %s returned %d", method, path, resp.StatusCode)
		if resp.StatusCode >= 500 {
			return resp.StatusCode, retry.RetryableError(statusErr)
		}
		return resp.StatusCode, statusErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, oops.Code(CodeBadResponse).With("path", path).Wrap(err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (c *Client) serverPath(endpoint string) string {
	return "/server/" + c.cfg.ServerID + "/" + endpoint
}
