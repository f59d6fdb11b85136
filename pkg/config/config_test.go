package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "version", cfg.BootstrapCommand)
	require.Len(t, cfg.Repositories, 3)
	assert.Equal(t, "releases", cfg.Repositories[0].Name)
	assert.Equal(t, "hidden", cfg.Repositories[2].Visibility)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
logging:
  level: debug
  format: json
server:
  port: 9090
  shutdown_timeout: 5s
storage:
  data_dir: ` + dir + `
repositories:
  - name: releases
    visibility: public
    deploy: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, dir, cfg.Storage.DataDir)
	require.Len(t, cfg.Repositories, 1)
	assert.True(t, cfg.Repositories[0].Deploy)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 123456\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsDuplicateRepositories(t *testing.T) {
	t.Parallel()

	cfg := GetDefaultConfig()
	cfg.Repositories = append(cfg.Repositories, RepositoryConfig{Name: "Releases", Visibility: "public"})

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate repository")
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	t.Parallel()

	cfg := GetDefaultConfig()
	cfg.Auth.JWTSecret = "too-short"

	assert.Error(t, Validate(cfg))
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.Port = 7777
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, loaded.Server.Port)
}

func TestInitToPathRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, InitToPath(path, false))
	assert.Error(t, InitToPath(path, false))
	assert.NoError(t, InitToPath(path, true))
}
