package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FAIRSIM_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SIM_DEFAULT_N", "")
	t.Setenv("SIM_SEED", "")
	t.Setenv("CACHE_TTL_MINUTES", "")
	t.Setenv("CACHE_CLEANUP_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 100000, cfg.DefaultSimulations)
	assert.Nil(t, cfg.DefaultSeed)
	assert.Equal(t, 60, cfg.CacheTTLMinutes)
	assert.Equal(t, "*/15 * * * *", cfg.CleanupSchedule)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FAIRSIM_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SIM_DEFAULT_N", "50000")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("CACHE_TTL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 50000, cfg.DefaultSimulations)
	require.NotNil(t, cfg.DefaultSeed)
	assert.Equal(t, int64(42), *cfg.DefaultSeed)
	assert.Equal(t, 5, cfg.CacheTTLMinutes)
}

func TestValidate(t *testing.T) {
	valid := &Config{Port: 8000, DefaultSimulations: 100000, CacheTTLMinutes: 60}
	assert.NoError(t, valid.Validate())

	badPort := &Config{Port: 0, DefaultSimulations: 100000, CacheTTLMinutes: 60}
	assert.Error(t, badPort.Validate())

	badSims := &Config{Port: 8000, DefaultSimulations: 0, CacheTTLMinutes: 60}
	assert.Error(t, badSims.Validate())

	badTTL := &Config{Port: 8000, DefaultSimulations: 100000, CacheTTLMinutes: 0}
	assert.Error(t, badTTL.Validate())
}
