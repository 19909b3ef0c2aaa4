package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8.34, cfg.Pipeline.WaterDensityLbsPerGal)
	assert.Equal(t, 45, cfg.Pipeline.ShortJobMaxDays)
	assert.Equal(t, 365, cfg.Pipeline.OutlierJobDays)
	assert.Equal(t, 0.5, cfg.Pipeline.MassCompletenessMin)
	assert.Equal(t, 80.0, cfg.Pipeline.PercentPlausibleMax)
	assert.Equal(t, 1e-6, cfg.Pipeline.ConservationTolerance)
	assert.Equal(t, "utf-8", cfg.Pipeline.Encoding)
	assert.Equal(t, "Permian Basin", cfg.Regions.FilterBasin)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 60.0, cfg.Atlas.PricePerTon)
	assert.Equal(t, 0.80, cfg.Atlas.ContractPct)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FRACFOCUS_PIPELINE_SHORT_JOB_MAX_DAYS", "30")
	t.Setenv("FRACFOCUS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Pipeline.ShortJobMaxDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "console"})
	assert.NoError(t, err)
}
