package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tablerock/holdem/internal/game"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings  `hcl:"server,block"`
	Tables []TableSettings `hcl:"table,block"`
	Bots   []BotSettings   `hcl:"bot,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableSettings defines one table. Durations are in seconds.
type TableSettings struct {
	Name              string `hcl:"name,label"`
	MaxPlayers        int    `hcl:"max_players,optional"`
	SmallBlind        int    `hcl:"small_blind"`
	BigBlind          int    `hcl:"big_blind"`
	BuyInMin          int    `hcl:"buy_in_min,optional"`
	BuyInMax          int    `hcl:"buy_in_max,optional"`
	ActionTimeoutSec  int    `hcl:"action_timeout,optional"`
	GracePeriodSec    int    `hcl:"grace_period,optional"`
	StraddleEnabled   bool   `hcl:"straddle,optional"`
	RunItTwiceEnabled bool   `hcl:"run_it_twice,optional"`
}

// BotSettings seats a house bot at the named tables.
type BotSettings struct {
	Name     string   `hcl:"name,label"`
	Strategy string   `hcl:"strategy"`
	Tables   []string `hcl:"tables,optional"`
	BuyIn    int      `hcl:"buy_in,optional"`
}

// DefaultConfig returns the configuration used when no file exists: a
// single six-max table.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableSettings{
			{
				Name:             "main",
				MaxPlayers:       6,
				SmallBlind:       1,
				BigBlind:         2,
				BuyInMin:         100,
				BuyInMax:         1000,
				ActionTimeoutSec: 30,
				GracePeriodSec:   60,
			},
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	var config Config
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	for i := range c.Tables {
		table := &c.Tables[i]
		if table.MaxPlayers == 0 {
			table.MaxPlayers = 6
		}
		if table.BuyInMin == 0 {
			table.BuyInMin = table.BigBlind * 50
		}
		if table.BuyInMax == 0 {
			table.BuyInMax = table.BigBlind * 500
		}
		if table.ActionTimeoutSec == 0 {
			table.ActionTimeoutSec = 30
		}
		if table.GracePeriodSec == 0 {
			table.GracePeriodSec = 60
		}
	}

	for i := range c.Bots {
		bot := &c.Bots[i]
		if bot.BuyIn == 0 && len(c.Tables) > 0 {
			bot.BuyIn = c.Tables[0].BuyInMin
		}
		if len(bot.Tables) == 0 {
			for _, table := range c.Tables {
				bot.Tables = append(bot.Tables, table.Name)
			}
		}
	}
}

// Validate checks the whole configuration. Table rule validation is
// delegated to the game package so the two can never disagree.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	names := make(map[string]bool, len(c.Tables))
	for _, table := range c.Tables {
		if names[table.Name] {
			return fmt.Errorf("duplicate table name %q", table.Name)
		}
		names[table.Name] = true
		if err := table.GameConfig().Validate(); err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}
	}

	for _, bot := range c.Bots {
		if bot.Strategy != StrategyCall && bot.Strategy != StrategyFold {
			return fmt.Errorf("bot %s: invalid strategy %q", bot.Name, bot.Strategy)
		}
		for _, table := range bot.Tables {
			if !names[table] {
				return fmt.Errorf("bot %s: unknown table %q", bot.Name, table)
			}
		}
	}
	return nil
}

// GameConfig converts the wire settings into the engine's table
// configuration.
func (t TableSettings) GameConfig() game.TableConfig {
	return game.TableConfig{
		MaxPlayers:        t.MaxPlayers,
		SmallBlind:        t.SmallBlind,
		BigBlind:          t.BigBlind,
		MinBuyIn:          t.BuyInMin,
		MaxBuyIn:          t.BuyInMax,
		ActionTimeout:     time.Duration(t.ActionTimeoutSec) * time.Second,
		GracePeriod:       time.Duration(t.GracePeriodSec) * time.Second,
		StraddleEnabled:   t.StraddleEnabled,
		RunItTwiceEnabled: t.RunItTwiceEnabled,
	}
}

// ListenAddress is the host:port the HTTP server binds.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// BotsForTable returns the bots configured to sit at the named table.
func (c *Config) BotsForTable(tableName string) []BotSettings {
	var bots []BotSettings
	for _, bot := range c.Bots {
		for _, table := range bot.Tables {
			if table == tableName {
				bots = append(bots, bot)
				break
			}
		}
	}
	return bots
}
