// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

type stubEngine struct{}

func (stubEngine) Do(context.Context, func(*warden.Tx)) error { return nil }

type stubLinker struct{}

func (stubLinker) Link(context.Context, string, string) error { return nil }

func testResolver(t *testing.T) *poi.Resolver {
	t.Helper()
	catalog, err := poi.Default()
	require.NoError(t, err)
	return poi.NewResolver(catalog)
}

func TestServices_Validate(t *testing.T) {
	resolver := testResolver(t)

	var nilServices *Services
	errutil.AssertErrorCode(t, nilServices.Validate(), CodeNilServices)

	tests := []struct {
		name     string
		services *Services
		missing  string
	}{
		{"engine", &Services{Resolver: resolver, Links: stubLinker{}}, "engine"},
		{"resolver", &Services{Engine: stubEngine{}, Links: stubLinker{}}, "resolver"},
		{"links", &Services{Engine: stubEngine{}, Resolver: resolver}, "links"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.services.Validate()
			errutil.AssertErrorCode(t, err, CodeNilServices)
			errutil.AssertErrorContext(t, err, "service", tt.missing)
		})
	}

	ok := &Services{Engine: stubEngine{}, Resolver: resolver, Links: stubLinker{}}
	assert.NoError(t, ok.Validate())
}

func TestExclusions(t *testing.T) {
	ex, err := NewExclusions([]string{"*event*", "Tisy", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"*event*", "tisy"}, ex.Patterns())

	assert.True(t, ex.Excluded(&poi.Definition{ID: "airdrop-event", Name: "Airdrop"}))
	assert.True(t, ex.Excluded(&poi.Definition{ID: "tisy-military-t5", Name: "Tisy Military T5", ShortName: "Tisy"}))
	assert.False(t, ex.Excluded(&poi.Definition{ID: "kamensk", Name: "Kamensk"}))

	var none *Exclusions
	assert.False(t, none.Excluded(&poi.Definition{ID: "x"}))
	assert.Nil(t, none.Patterns())
}

func TestExclusions_InvalidPattern(t *testing.T) {
	_, err := NewExclusions([]string{"[unclosed"})
	errutil.AssertErrorCode(t, err, CodeInvalidExclusion)
}
