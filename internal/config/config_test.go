package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://ctks.onrender.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Console.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Console.SearchDebounce)
	assert.Equal(t, "non_negative", cfg.Pricing.Policy)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "console.audit", cfg.Audit.Topic)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricing:\n  policy: any\nconsole:\n  page_size: 10\n"), 0o600))

	t.Setenv("CTKS_BACKEND_BASE_URL", "http://localhost:4000/api")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "any", cfg.Pricing.Policy)
	assert.Equal(t, 10, cfg.Console.PageSize)
	assert.Equal(t, "http://localhost:4000/api", cfg.Backend.BaseURL)
	// untouched keys keep their defaults
	assert.Equal(t, "ctks_session", cfg.HTTP.CookieName)
}
