// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

const testSecret = "s3cret"

type chatCall struct {
	player  string
	message string
}

type fakeChat struct {
	mu     sync.Mutex
	calls  []chatCall
	err    error
	panics bool
}

func (f *fakeChat) HandleChat(_ context.Context, player, message string) error {
	if f.panics {
		panic("interpreter exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chatCall{player: player, message: message})
	return f.err
}

func (f *fakeChat) recorded() []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatCall(nil), f.calls...)
}

func newTestHandler(t *testing.T, chat ChatHandler) http.Handler {
	t.Helper()
	h, err := New(testSecret, chat, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return h.Routes()
}

func deliver(h http.Handler, event, body string, signed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if event != "" {
		req.Header.Set(HeaderEvent, event)
	}
	delivery := "3f2b7c1e-delivery"
	req.Header.Set(HeaderDelivery, delivery)
	if signed {
		req.Header.Set(HeaderSignature, Sign(delivery, testSecret))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSign(t *testing.T) {
	assert.Equal(t,
		"875d426d790019f2e1ca35c5f246dab0ab06500e7f9601e3a2d8789ad02130e0",
		Sign("3f2b7c1e-delivery", testSecret))
}

func TestValidSignature(t *testing.T) {
	good := Sign("3f2b7c1e-delivery", testSecret)

	tests := []struct {
		name      string
		delivery  string
		signature string
		want      bool
	}{
		{"matching", "3f2b7c1e-delivery", good, true},
		{"wrong secret", "3f2b7c1e-delivery", Sign("3f2b7c1e-delivery", "other"), false},
		{"other delivery", "another-delivery", good, false},
		{"uppercase hex", "3f2b7c1e-delivery", strings.ToUpper(good), false},
		{"missing delivery", "", good, false},
		{"missing signature", "3f2b7c1e-delivery", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSignature(tt.delivery, tt.signature, testSecret))
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", &fakeChat{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeMissingSecret)

	_, err = New(testSecret, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "WEBHOOK_NIL_HANDLER")
}

func TestReceive(t *testing.T) {
	chatBody := `{"message":"!claim tisy","player_name":"Alice"}`

	tests := []struct {
		name       string
		event      string
		body       string
		signed     bool
		chatErr    error
		wantStatus int
		wantCalls  []chatCall
	}{
		{
			name:       "verification needs no signature",
			event:      EventVerification,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unsigned chat is forbidden",
			event:      EventChat,
			body:       chatBody,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unsigned unknown event is forbidden",
			event:      "user.join",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "signed chat reaches interpreter",
			event:      EventChat,
			body:       chatBody,
			signed:     true,
			wantStatus: http.StatusNoContent,
			wantCalls:  []chatCall{{player: "Alice", message: "!claim tisy"}},
		},
		{
			name:       "other events are accepted and ignored",
			event:      "user.join",
			body:       `{"player_name":"Alice"}`,
			signed:     true,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "malformed body",
			event:      EventChat,
			body:       `{"message":`,
			signed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing player name",
			event:      EventChat,
			body:       `{"message":"!help"}`,
			signed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "interpreter failure",
			event:      EventChat,
			body:       chatBody,
			signed:     true,
			chatErr:    errors.New("engine stopped"),
			wantStatus: http.StatusInternalServerError,
			wantCalls:  []chatCall{{player: "Alice", message: "!claim tisy"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{err: tt.chatErr}
			rec := deliver(newTestHandler(t, chat), tt.event, tt.body, tt.signed)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, chat.recorded())
		})
	}
}

func TestReceive_PanicBecomes500(t *testing.T) {
	rec := deliver(newTestHandler(t, &fakeChat{panics: true}), EventChat,
		`{"message":"!help","player_name":"Alice"}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReceive_OnlyPostIsRouted(t *testing.T) {
	h := newTestHandler(t, &fakeChat{})

	req := httptest.NewRequest(http.MethodGet, Path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/other", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceive_OversizedBody(t *testing.T) {
	body := `{"message":"` + strings.Repeat("a", MaxBodyBytes) + `","player_name":"Alice"}`
	chat := &fakeChat{}
	rec := deliver(newTestHandler(t, chat), EventChat, body, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, chat.recorded())
}

func TestReceive_CountsRequests(t *testing.T) {
	h := newTestHandler(t, &fakeChat{})
	before := testutil.ToFloat64(requests.WithLabelValues("other", "403"))

	deliver(h, "custom.event", "", false)

	assert.InDelta(t, before+1, testutil.ToFloat64(requests.WithLabelValues("other", "403")), 0)
}

func TestServer_StartStop(t *testing.T) {
	h, err := New(testSecret, &fakeChat{})
	require.NoError(t, err)
	srv := NewServer("127.0.0.1:0", h)
	assert.Empty(t, srv.Addr())

	errCh, err := srv.Start()
	require.NoError(t, err)

	_, err = srv.Start()
	require.Error(t, err, "second start fails")

	req, err := http.NewRequest(http.MethodPost, "http://"+srv.Addr()+Path, nil)
	require.NoError(t, err)
	req.Header.Set(HeaderEvent, EventVerification)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "stop is idempotent")

	_, open := <-errCh
	assert.False(t, open, "error channel closes on shutdown")
}
