package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEALBOOK_"

// LoadEnv reads .env style files into the process environment. Missing
// files are skipped; variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env %q: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from DEALBOOK_* variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *float64) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = x
		return nil
	}

	str("ACCOUNT", &c.Account.ID)
	str("SERVER", &c.Account.Server)
	str("SOURCE_TYPE", &c.Source.Type)
	str("DEALS_FILE", &c.Source.DealsFile)
	str("POSITIONS_FILE", &c.Source.PositionsFile)
	str("SOURCE_DB", &c.Source.DBPath)
	str("STORE_DB", &c.Store.DBPath)
	str("LOG_LEVEL", &c.Log.Level)
	str("ADDR", &c.Server.Addr)

	if err := num("START_BALANCE", &c.Account.StartBalance); err != nil {
		return err
	}
	return num("TIMESHIFT_HOURS", &c.Time.LocalTimeshiftHours)
}
