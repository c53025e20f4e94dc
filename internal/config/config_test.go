package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 10.0, cfg.MaxDeliveryMiles)
	assert.Equal(t, 0.08, cfg.RedemptionCap)
	assert.Equal(t, 15.0, cfg.DeliveryFee)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "purepick.yaml")
	content := `
port: "9090"
storage: sqlite
sqlite_path: /tmp/pp.db
delivery_fee: 0
analysis_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("STORAGE", "redis")
	t.Setenv("MAX_DELIVERY_MILES", "12.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageRedis, cfg.Storage)
	assert.Equal(t, "/tmp/pp.db", cfg.SQLitePath)
	assert.Equal(t, 0.0, cfg.DeliveryFee)
	assert.Equal(t, 12.5, cfg.MaxDeliveryMiles)
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("storage", func(t *testing.T) {
		t.Setenv("STORAGE", "postgres")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("fee", func(t *testing.T) {
		t.Setenv("DELIVERY_FEE", "cheap")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
