package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "docs/faq.md", cfg.Document)
	assert.Equal(t, filepath.Join(".relayfaq", "kb.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Watch.IndexOnChange)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayfaq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"document: other/faq.md\nwatch:\n  debounce: 1s\nlogging:\n  level: debug\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "other/faq.md", cfg.Document)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Second, cfg.GetDebounce())
	// Untouched fields keep their defaults.
	assert.Equal(t, filepath.Join(".relayfaq", "kb.db"), cfg.DatabasePath)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayfaq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("RELAYFAQ_DOC overrides document", func(t *testing.T) {
		t.Setenv("RELAYFAQ_DOC", "/tmp/faq.md")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/faq.md", cfg.Document)
	})

	t.Run("RELAYFAQ_DB overrides database path", func(t *testing.T) {
		t.Setenv("RELAYFAQ_DB", "/tmp/kb.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/kb.db", cfg.DatabasePath)
	})

	t.Run("RELAYFAQ_LOG_LEVEL overrides level", func(t *testing.T) {
		t.Setenv("RELAYFAQ_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("RELAYFAQ_DOC", "/env/faq.md")
		path := filepath.Join(t.TempDir(), "relayfaq.yaml")
		require.NoError(t, os.WriteFile(path, []byte("document: file/faq.md\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/env/faq.md", cfg.Document)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "relayfaq.yaml")

	cfg := DefaultConfig()
	cfg.Document = "saved/faq.md"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved/faq.md", loaded.Document)
}

func TestGetDebounceFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch.Debounce = "not-a-duration"
	assert.Equal(t, 300*time.Millisecond, cfg.GetDebounce())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Document = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DatabasePath = ""
	assert.Error(t, cfg.Validate())
}
