package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete dealbook configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Time    TimeConfig    `json:"time" yaml:"time"`
	Source  SourceConfig  `json:"source" yaml:"source"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Report  ReportConfig  `json:"report" yaml:"report"`
}

// AccountConfig identifies the trading account being analysed
type AccountConfig struct {
	ID           string  `json:"id" yaml:"id"`
	Server       string  `json:"server,omitempty" yaml:"server,omitempty"`
	Currency     string  `json:"currency" yaml:"currency"`
	StartBalance float64 `json:"start_balance" yaml:"start_balance"`
}

// TimeConfig holds the terminal's fixed offset from local time
type TimeConfig struct {
	LocalTimeshiftHours float64 `json:"local_timeshift_hours" yaml:"local_timeshift_hours"`
}

// Offset converts the configured shift to a duration
func (t TimeConfig) Offset() time.Duration {
	return time.Duration(t.LocalTimeshiftHours * float64(time.Hour))
}

// SourceConfig selects where deals come from
type SourceConfig struct {
	Type          string `json:"type" yaml:"type"` // "csv" or "sqlite"
	DealsFile     string `json:"deals_file,omitempty" yaml:"deals_file,omitempty"`
	PositionsFile string `json:"positions_file,omitempty" yaml:"positions_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StoreConfig locates the label and group database
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

type LogConfig struct {
	Level             string `json:"level" yaml:"level"`
	Encoding          string `json:"encoding" yaml:"encoding"` // "json" or "console"
	Development       bool   `json:"development" yaml:"development"`
	DisableCaller     bool   `json:"disable_caller" yaml:"disable_caller"`
	DisableStacktrace bool   `json:"disable_stacktrace" yaml:"disable_stacktrace"`
	Sampling          bool   `json:"sampling" yaml:"sampling"`
}

type ServerConfig struct {
	Addr    string `json:"addr" yaml:"addr"`
	Refresh string `json:"refresh" yaml:"refresh"` // e.g. "60s"
}

// RefreshInterval parses Refresh; empty means no refresh hint
func (s ServerConfig) RefreshInterval() (time.Duration, error) {
	if s.Refresh == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Refresh)
}

// ReportConfig holds presentation thresholds, as percentages of the start
// balance
type ReportConfig struct {
	WarningPct       float64 `json:"warning_pct" yaml:"warning_pct"`
	CriticalPct      float64 `json:"critical_pct" yaml:"critical_pct"`
	DescriptionFirst bool    `json:"description_first" yaml:"description_first"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.StartBalance < 0 {
		return fmt.Errorf("account.start_balance must not be negative")
	}
	if h := c.Time.LocalTimeshiftHours; h < -14 || h > 14 {
		return fmt.Errorf("time.local_timeshift_hours must be between -14 and 14")
	}
	switch c.Source.Type {
	case "csv":
		if c.Source.DealsFile == "" {
			return fmt.Errorf("source deals_file required for CSV type")
		}
	case "sqlite":
		if c.Source.DBPath == "" {
			return fmt.Errorf("source db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("source.type must be 'csv' or 'sqlite'")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return fmt.Errorf("log.encoding must be 'json' or 'console'")
	}
	if _, err := c.Server.RefreshInterval(); err != nil {
		return fmt.Errorf("server.refresh: %w", err)
	}
	if c.Report.WarningPct > 0 || c.Report.CriticalPct > c.Report.WarningPct {
		return fmt.Errorf("report thresholds must satisfy critical_pct <= warning_pct <= 0")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "default",
			Currency: "USD",
		},
		Time: TimeConfig{
			LocalTimeshiftHours: 3,
		},
		Source: SourceConfig{
			Type:   "sqlite",
			DBPath: "./deals.db",
		},
		Store: StoreConfig{
			DBPath: "./magics.db",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Refresh: "60s",
		},
		Report: ReportConfig{
			WarningPct:  -12,
			CriticalPct: -20,
		},
	}
}
