package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/auth"
	"github.com/palemoky/turn-party/internal/config"
	"github.com/palemoky/turn-party/internal/game/rule"
)

func TestCatalogOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Game.TurnTimeout = 15
	cfg.Game.TurnTimeouts = map[string]int{"drawing": 90, "quiz": 0}
	cfg.Game.SnakeWrap = true

	opts := catalogOptions(cfg)
	assert.Equal(t, 15*time.Second, opts.TurnDuration)
	assert.Equal(t, map[rule.GameType]time.Duration{rule.Drawing: 90 * time.Second}, opts.TurnDurations)
	assert.True(t, opts.SnakeWrap)
	assert.Equal(t, cfg.Game.SnakeSize, opts.SnakeSize)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	err := app.Run(context.Background(), []string{
		"turn-party", "--config", missing, "--log-level", "error",
		"token", "--player", "p-7", "--name", "Neo", "--ttl", "1h",
	})
	require.NoError(t, err)

	verifier := auth.NewJWTVerifier(auth.Config{Secret: "cli-secret", Issuer: config.Default().Auth.Issuer})
	id, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "p-7", id.PlayerID)
	assert.Equal(t, "Neo", id.Name)
	assert.False(t, id.Guest)
}

func TestTokenCommand_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run(context.Background(), []string{
		"turn-party", "--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"token", "--player", "p-7",
	})
	assert.Error(t, err)
}
