// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs string
	}{
		{"bare command", "claim", "claim", ""},
		{"with args", "claim green mountain", "claim", "green mountain"},
		{"bang prefix", "!claim tisy", "claim", "tisy"},
		{"slash prefix", "/claim tisy", "claim", "tisy"},
		{"bang slash prefix", "!/claim tisy", "claim", "tisy"},
		{"uppercase name", "CLAIM Tisy", "claim", "Tisy"},
		{"surrounding whitespace", "  check   claims  ", "check", "claims"},
		{"tab separator", "join\tgm", "join", "gm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, parsed.Name)
			assert.Equal(t, tt.wantArgs, parsed.Args)
			assert.Equal(t, tt.input, parsed.Raw)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "!", "!/", "/"} {
		_, err := Parse(input)
		require.Error(t, err, input)
		errutil.AssertErrorCode(t, err, CodeEmptyInput)
	}
}

func TestPOIArg(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"green mountain", "green mountain"},
		{"tisy!", "tisy"},
		{"rify's wreck", "rify"},
		{"bash-t4 please", "bash-t4 please"},
		{"  spaced  ", "spaced"},
		{"kamensk_t3,now", "kamensk_t3"},
		{"?", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, POIArg(tt.in), tt.in)
	}
}
