package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 3.0, cfg.Time.LocalTimeshiftHours)
	assert.Equal(t, 3*time.Hour, cfg.Time.Offset())
	assert.Equal(t, "./magics.db", cfg.Store.DBPath)
	assert.Equal(t, -12.0, cfg.Report.WarningPct)
	assert.Equal(t, -20.0, cfg.Report.CriticalPct)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing account",
			mutate:  func(c *Config) { c.Account.ID = "" },
			wantErr: true,
			errMsg:  "account.id is required",
		},
		{
			name:    "negative start balance",
			mutate:  func(c *Config) { c.Account.StartBalance = -1 },
			wantErr: true,
			errMsg:  "account.start_balance must not be negative",
		},
		{
			name:    "absurd timeshift",
			mutate:  func(c *Config) { c.Time.LocalTimeshiftHours = 30 },
			wantErr: true,
			errMsg:  "time.local_timeshift_hours",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Source.Type = "terminal" },
			wantErr: true,
			errMsg:  "source.type must be 'csv' or 'sqlite'",
		},
		{
			name: "csv without deals file",
			mutate: func(c *Config) {
				c.Source = SourceConfig{Type: "csv"}
			},
			wantErr: true,
			errMsg:  "source deals_file required",
		},
		{
			name: "csv with deals file",
			mutate: func(c *Config) {
				c.Source = SourceConfig{Type: "csv", DealsFile: "deals.csv"}
			},
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Source.DBPath = "" },
			wantErr: true,
			errMsg:  "source db_path required",
		},
		{
			name:    "missing store",
			mutate:  func(c *Config) { c.Store.DBPath = "" },
			wantErr: true,
			errMsg:  "store.db_path is required",
		},
		{
			name:    "bad encoding",
			mutate:  func(c *Config) { c.Log.Encoding = "xml" },
			wantErr: true,
			errMsg:  "log.encoding",
		},
		{
			name:    "bad refresh",
			mutate:  func(c *Config) { c.Server.Refresh = "soon" },
			wantErr: true,
			errMsg:  "server.refresh",
		},
		{
			name:    "thresholds out of order",
			mutate:  func(c *Config) { c.Report.CriticalPct = -5 },
			wantErr: true,
			errMsg:  "report thresholds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Account.ID = "51234567"
			cfg.Account.StartBalance = 8736
			cfg.Time.LocalTimeshiftHours = 2
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  id: \"777\"\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "777", cfg.Account.ID)
	assert.Equal(t, 3.0, cfg.Time.LocalTimeshiftHours)
	assert.Equal(t, "sqlite", cfg.Source.Type)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestRefreshInterval(t *testing.T) {
	tests := []struct {
		refresh  string
		expected string
		wantErr  bool
	}{
		{"60s", "1m0s", false},
		{"5m", "5m0s", false},
		{"", "0s", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.refresh, func(t *testing.T) {
			d, err := ServerConfig{Refresh: tt.refresh}.RefreshInterval()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"DEALBOOK_ACCOUNT=90001\nDEALBOOK_TIMESHIFT_HOURS=2\nDEALBOOK_START_BALANCE=1500.5\n"), 0644))

	// Already-set variables win over the file.
	t.Setenv("DEALBOOK_ACCOUNT", "90002")
	t.Setenv("DEALBOOK_TIMESHIFT_HOURS", "")
	os.Unsetenv("DEALBOOK_TIMESHIFT_HOURS")
	t.Setenv("DEALBOOK_START_BALANCE", "")
	os.Unsetenv("DEALBOOK_START_BALANCE")

	require.NoError(t, LoadEnv(envPath, filepath.Join(dir, "missing.env")))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "90002", cfg.Account.ID)
	assert.Equal(t, 2.0, cfg.Time.LocalTimeshiftHours)
	assert.Equal(t, 1500.5, cfg.Account.StartBalance)

	t.Setenv("DEALBOOK_START_BALANCE", "lots")
	assert.Error(t, cfg.ApplyEnv())
}

func TestPreset(t *testing.T) {
	// Wednesday
	wed := time.Date(2024, 10, 16, 14, 30, 0, 0, time.UTC)
	// Sunday
	sun := time.Date(2024, 10, 20, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		preset   string
		now      time.Time
		wantFrom time.Time
	}{
		{"today", "today", wed, time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"today on weekend", "today", sun, time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)},
		{"this week", "this_week", wed, time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)},
		{"this month", "this_month", wed, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"this year", "this_year", wed, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Preset(tt.preset, tt.now)
			require.NoError(t, err)
			assert.True(t, r.From.Equal(tt.wantFrom), "from = %s", r.From)
			assert.True(t, r.To.Equal(tt.now))
		})
	}

	_, err := Preset("last_decade", wed)
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Len(t, PresetNames(), 4)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-04 09:30:00",
		"2024-03-04T09:30:00",
		"2024.03.04 09:30:00",
		"2024-03-04T09:30:00+02:00",
	} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%s -> %s", in, got)
	}

	day, err := ParseTime("2024-03-04")
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))

	_, err = ParseTime("yesterday")
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 10, 16, 14, 0, 0, 0, time.UTC)

	r, err := Window("", "", "", "this_month", now)
	require.NoError(t, err)
	assert.True(t, r.From.Equal(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)))

	r, err = Window("", "", "", "", now)
	require.NoError(t, err)
	assert.True(t, r.From.IsZero())
	assert.True(t, r.To.IsZero())

	r, err = Window("", "2024-10-01", "2024-10-02", "today", now)
	require.NoError(t, err)
	assert.True(t, r.To.Equal(time.Date(2024, 10, 2, 23, 59, 59, 0, time.UTC)))

	r, err = Window("", "", "2024-10-02 12:00:00", "", now)
	require.NoError(t, err)
	assert.True(t, r.From.IsZero())
	assert.True(t, r.To.Equal(time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC)))

	_, err = Window("", "soon", "", "", now)
	assert.ErrorIs(t, err, ErrBadTime)
	_, err = Window("fortnight", "", "", "", now)
	assert.ErrorIs(t, err, ErrUnknownPreset)
}
