package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigHCL(t *testing.T) {
	src := `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

table "highstakes" {
  max_players    = 9
  small_blind    = 100
  big_blind      = 200
  buy_in_min     = 5000
  buy_in_max     = 40000
  action_timeout = 15
  grace_period   = 90
}

table "micro" {
  small_blind = 1
  big_blind   = 2
}

bot "station" {
  strategy = "call"
  tables   = ["micro"]
  buy_in   = 150
}
`
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)

	require.Len(t, cfg.Tables, 2)
	high := cfg.Tables[0]
	assert.Equal(t, 9, high.MaxPlayers)
	assert.Equal(t, 15, high.ActionTimeoutSec)
	assert.Equal(t, 90, high.GracePeriodSec)

	// The micro table picks up every default.
	micro := cfg.Tables[1]
	assert.Equal(t, 6, micro.MaxPlayers)
	assert.Equal(t, 100, micro.BuyInMin)  // 50 big blinds
	assert.Equal(t, 1000, micro.BuyInMax) // 500 big blinds
	assert.Equal(t, 30, micro.ActionTimeoutSec)
	assert.Equal(t, 60, micro.GracePeriodSec)

	require.Len(t, cfg.Bots, 1)
	assert.Equal(t, []string{"micro"}, cfg.Bots[0].Tables)
	assert.Equal(t, 150, cfg.Bots[0].BuyIn)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`table "x" {`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidateErrors(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.applyDefaults()
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Tables = nil
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Tables = append(cfg.Tables, cfg.Tables[0])
	assert.ErrorContains(t, cfg.Validate(), "duplicate table")

	cfg = base()
	cfg.Tables[0].BigBlind = cfg.Tables[0].SmallBlind
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bots = []BotSettings{{Name: "x", Strategy: "maniac", Tables: []string{"main"}}}
	assert.ErrorContains(t, cfg.Validate(), "invalid strategy")

	cfg = base()
	cfg.Bots = []BotSettings{{Name: "x", Strategy: StrategyCall, Tables: []string{"ghost"}}}
	assert.ErrorContains(t, cfg.Validate(), "unknown table")
}

func TestGameConfigConversion(t *testing.T) {
	settings := TableSettings{
		Name:             "main",
		MaxPlayers:       6,
		SmallBlind:       50,
		BigBlind:         100,
		BuyInMin:         5000,
		BuyInMax:         10000,
		ActionTimeoutSec: 20,
		GracePeriodSec:   45,
	}
	gc := settings.GameConfig()
	assert.Equal(t, 20*time.Second, gc.ActionTimeout)
	assert.Equal(t, 45*time.Second, gc.GracePeriod)
	assert.NoError(t, gc.Validate())
}
