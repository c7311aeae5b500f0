// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package cftools

import (
	"context"
	"net/http"
	"strings"

	"github.com/claimwarden/claimwarden/internal/geo"
	"github.com/claimwarden/claimwarden/internal/players"
)

type sessionList struct {
	Sessions []session `json:"sessions"`
}

type session struct {
	GameData struct {
		PlayerName string `json:"player_name"`
		Steam64    string `json:"steam64"`
	} `json:"gamedata"`
	Live struct {
		Position struct {
			// Latest is [x, y, height]: two planar map coordinates, then altitude.
			Latest []float64 `json:"latest"`
		} `json:"position"`
	} `json:"live"`
}

// FetchPlayers lists online sessions. Sessions without a name or a full
// position are skipped.
func (c *Client) FetchPlayers(ctx context.Context) ([]players.Snapshot, error) {
	var list sessionList
	if err := c.do(ctx, http.MethodGet, c.serverPath("GSM/list"), nil, &list); err != nil {
		return nil, err
	}

	snaps := make([]players.Snapshot, 0, len(list.Sessions))
	for _, s := range list.Sessions {
		name := strings.TrimSpace(s.GameData.PlayerName)
		pos := s.Live.Position.Latest
		if name == "" || len(pos) < 3 {
			continue
		}
		snaps = append(snaps, players.Snapshot{
			DisplayName: name,
			PlatformID:  strings.TrimSpace(s.GameData.Steam64),
			Position:    geo.Vec2{X: pos[0], Y: pos[1]},
			Height:      pos[2],
		})
	}
	return snaps, nil
}

type messageRequest struct {
	Content string `json:"content"`
}

// SendMessage broadcasts text to everyone on the server.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.do(ctx, http.MethodPost, c.serverPath("message-server"), messageRequest{Content: text}, nil)
}

// TeleportActionCode is the GameLabs action that moves a player.
const TeleportActionCode = "CFCloud_TeleportPlayer"

type actionRequest struct {
	ActionCode    string           `json:"actionCode"`
	ActionContext string           `json:"actionContext"`
	ReferenceKey  string           `json:"referenceKey"`
	Parameters    actionParameters `json:"parameters"`
}

type actionParameters struct {
	Vector vectorParameter `json:"vector"`
}

type vectorParameter struct {
	X float64 `json:"valueVectorX"`
	Y float64 `json:"valueVectorY"`
	Z float64 `json:"valueVectorZ"`
}

// TeleportPlayer moves the player with the given SteamID64 to target, where
// target.Z is the height.
func (c *Client) TeleportPlayer(ctx context.Context, platformID string, target geo.Vec3) error {
	payload := actionRequest{
		ActionCode:    TeleportActionCode,
		ActionContext: "player",
		ReferenceKey:  platformID,
		Parameters: actionParameters{
			Vector: vectorParameter{X: target.X, Y: target.Y, Z: target.Z},
		},
	}
	return c.do(ctx, http.MethodPost, c.serverPath("GameLabs/action"), payload, nil)
}
