package config

import (
	"testing"

	"goeva/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"DATA_SHEET", "DATA_DELIMITER", "DATE_COLUMN", "TIME_COLUMN", "VOID_ROWS",
		"DECLUSTER_RUN_HOURS", "BLOCK_DAYS",
		"BOOTSTRAP_SIMULATIONS", "CONFIDENCE_LEVEL", "BOOTSTRAP_WORKERS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Ingest.Sheet)
	assert.Equal(t, ",", cfg.Ingest.Delimiter)
	assert.Equal(t, "Date", cfg.Ingest.DateColumn)
	assert.Equal(t, "HrMn", cfg.Ingest.TimeColumn)
	assert.Equal(t, 0, cfg.Ingest.VoidRows)

	assert.Equal(t, 24.0, cfg.Extraction.RunHours)
	assert.Equal(t, 365.2425, cfg.Extraction.BlockDays)

	assert.Equal(t, 100, cfg.Bootstrap.Simulations)
	assert.Equal(t, 0.95, cfg.Bootstrap.Confidence)
	assert.Equal(t, 0, cfg.Bootstrap.Workers)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DELIMITER", "\t")
	t.Setenv("DATE_COLUMN", "YYYYMMDD")
	t.Setenv("VOID_ROWS", "3")
	t.Setenv("DECLUSTER_RUN_HOURS", "48")
	t.Setenv("BOOTSTRAP_SIMULATIONS", "500")
	t.Setenv("CONFIDENCE_LEVEL", "0.9")
	t.Setenv("BOOTSTRAP_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "\t", cfg.Ingest.Delimiter)
	assert.Equal(t, "YYYYMMDD", cfg.Ingest.DateColumn)
	assert.Equal(t, 3, cfg.Ingest.VoidRows)
	assert.Equal(t, 48.0, cfg.Extraction.RunHours)
	assert.Equal(t, 500, cfg.Bootstrap.Simulations)
	assert.Equal(t, 0.9, cfg.Bootstrap.Confidence)
	assert.Equal(t, 4, cfg.Bootstrap.Workers)
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOTSTRAP_SIMULATIONS", "plenty")
	t.Setenv("CONFIDENCE_LEVEL", "ninety-five")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Bootstrap.Simulations)
	assert.Equal(t, 0.95, cfg.Bootstrap.Confidence)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"confidence too high", "CONFIDENCE_LEVEL", "1.5"},
		{"confidence at zero", "CONFIDENCE_LEVEL", "0"},
		{"zero simulations", "BOOTSTRAP_SIMULATIONS", "0"},
		{"negative void rows", "VOID_ROWS", "-1"},
		{"zero run hours", "DECLUSTER_RUN_HOURS", "0"},
		{"negative workers", "BOOTSTRAP_WORKERS", "-2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
		})
	}
}
