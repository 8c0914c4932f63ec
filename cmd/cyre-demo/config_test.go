package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper()
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 50.0, cfg.Breathing.CapacityCallsPerSecond)
	assert.False(t, cfg.Snapshot.Enabled)
}

func TestLoadConfigFromFileOverridesDefaults(t *testing.T) {
	resetViper()
	path := writeTempYAML(t, `
server:
  port: 9090
breathing:
  capacity_calls_per_second: 200
snapshot:
  enabled: true
  backend: file
  path: /tmp/snap.json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 200.0, cfg.Breathing.CapacityCallsPerSecond)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, "/tmp/snap.json", cfg.Snapshot.Path)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	resetViper()
	path := writeTempYAML(t, "server:\n  port: 9090\n")
	t.Setenv("CYRE_SERVER_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 70000},
		Breathing: BreathingConfig{CapacityCallsPerSecond: 10},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownSnapshotBackend(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: 8080},
		Breathing: BreathingConfig{CapacityCallsPerSecond: 10},
		Snapshot:  SnapshotConfig{Enabled: true, Backend: "memcached"},
	}
	assert.Error(t, cfg.Validate())
}
