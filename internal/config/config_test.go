package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data/rfq.db", cfg.Storage.DatabasePath)
	assert.Equal(t, int64(32), cfg.Storage.MaxUploadMB)
	assert.InDelta(t, 0.55, cfg.Analytics.EstimateHighThreshold, 1e-9)
	assert.InDelta(t, 0.30, cfg.Analytics.EstimateMediumThreshold, 1e-9)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RFQ_SERVER_PORT", "9090")
	t.Setenv("RFQ_STORAGE_DATABASE_PATH", "/var/lib/rfq/rfq.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/rfq/rfq.db", cfg.Storage.DatabasePath)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))
	t.Setenv("RFQ_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Setenv("RFQ_SERVER_PORT", "70000")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("RFQ_ANALYTICS_ESTIMATE_HIGH_THRESHOLD", "0.2")
	t.Setenv("RFQ_ANALYTICS_ESTIMATE_MEDIUM_THRESHOLD", "0.5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds inverted")
}
