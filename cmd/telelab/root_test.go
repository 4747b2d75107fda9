package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telelab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_url: http://file.local\nstore:\n  driver: memory\n"), 0o600))

	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path, "--api-url", "http://flag.local/api/"}))
	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)

	assert.Equal(t, "http://file.local", cfg.DeviceURL)
	assert.Equal(t, "http://flag.local/api/", cfg.APIURL)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"login", "logout", "modules", "run", "test", "simulate", "session", "graph", "mcp", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "0.0.0.0:9000", displayAddr("0.0.0.0:9000"))
}
