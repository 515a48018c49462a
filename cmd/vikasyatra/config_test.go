package main

import (
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConfigValue(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, setConfigValue(cfg, "default.base_url", "http://localhost:5000"))
	require.NoError(t, setConfigValue(cfg, "store.backend", "redis"))
	require.NoError(t, setConfigValue(cfg, "upload.cloudinary_preset", "unsigned"))
	require.NoError(t, setConfigValue(cfg, "log.mode", "prod"))
	assert.Equal(t, "http://localhost:5000", cfg.Default.BaseURL)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "unsigned", cfg.Upload.CloudinaryPreset)
	assert.Equal(t, "prod", cfg.Log.Mode)

	assert.Error(t, setConfigValue(cfg, "base_url", "x"))
	assert.Error(t, setConfigValue(cfg, "auth.token", "x"))
	assert.Error(t, setConfigValue(cfg, "default.api_key", "x"))
	assert.Error(t, setConfigValue(cfg, "store.backend", "postgres"))
	assert.Error(t, setConfigValue(cfg, "upload.provider", "s3"))
	assert.Equal(t, "redis", cfg.Store.Backend)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	cfg.Default.UserEmail = "learner@example.com"
	cfg.History.DSN = "postgres://localhost/vikasyatra"
	require.NoError(t, writeConfig(path, cfg))

	got, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	t.Setenv("VIKASYATRA_BASE_URL", "http://api.example.com")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")

	cfg := &Config{}
	cfg.Default.BaseURL = "http://localhost:5000"
	cfg.Default.UserEmail = "learner@example.com"
	require.NoError(t, applyEnv(cfg))

	assert.Equal(t, "http://api.example.com", cfg.Default.BaseURL)
	assert.Equal(t, "learner@example.com", cfg.Default.UserEmail)
	assert.Equal(t, "demo", cfg.Upload.CloudinaryCloud)
}

func TestResolveEntity(t *testing.T) {
	key, err := resolveEntity("stats")
	require.NoError(t, err)
	assert.Equal(t, "offline_user_stats", key)

	key, err = resolveEntity("offline_quizzes")
	require.NoError(t, err)
	assert.Equal(t, "offline_quizzes", key)

	_, err = resolveEntity("roadmaps")
	assert.ErrorContains(t, err, "dashboard")
}

func TestRenderConfigShowsEffectiveValues(t *testing.T) {
	t.Setenv("VIKASYATRA_BASE_URL", "http://api.example.com")
	t.Setenv("VIKASYATRA_TOKEN", "tok-1234567890abcd")

	cfg := &Config{}
	cfg.Default.BaseURL = "http://localhost:5000"
	cfg.Default.UserEmail = "learner@example.com"
	require.NoError(t, applyEnv(cfg))

	out, err := renderConfig(cfg)
	require.NoError(t, err)

	var got Config
	require.NoError(t, toml.Unmarshal(out, &got))
	assert.Equal(t, "http://api.example.com", got.Default.BaseURL)
	assert.Equal(t, "learner@example.com", got.Default.UserEmail)
	assert.Equal(t, "tok-...abcd", got.Default.Token)
	assert.Equal(t, "sqlite", got.Store.Backend)
	assert.NotContains(t, string(out), "tok-1234567890abcd")

	// the caller's config is left untouched
	assert.Equal(t, "tok-1234567890abcd", cfg.Default.Token)
	assert.Empty(t, cfg.Store.Backend)
}

func TestRenderConfigEmptyToken(t *testing.T) {
	out, err := renderConfig(&Config{})
	require.NoError(t, err)

	var got Config
	require.NoError(t, toml.Unmarshal(out, &got))
	assert.Empty(t, got.Default.Token)
}
