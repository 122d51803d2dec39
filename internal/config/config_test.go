package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigValue(t *testing.T) {
	tests := []struct {
		name      string
		flagValue string
		envValue  string
		defValue  string
		expected  string
	}{
		{name: "flag wins", flagValue: "from-flag", envValue: "from-env", defValue: "def", expected: "from-flag"},
		{name: "env beats default", flagValue: "", envValue: "from-env", defValue: "def", expected: "from-env"},
		{name: "default when nothing set", flagValue: "", envValue: "", defValue: "def", expected: "def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "BOOKEA_TEST_VALUE"
			if tt.envValue != "" {
				t.Setenv(key, tt.envValue)
			}
			assert.Equal(t, tt.expected, getConfigValue(tt.flagValue, key, tt.defValue))
		})
	}
}

func TestGetBoolConfigValue(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{value: "true", expected: true},
		{value: "1", expected: true},
		{value: "YES", expected: true},
		{value: "false", expected: false},
		{value: "nope", expected: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, getBoolConfigValue(tt.value, "UNSET_KEY", false), "value %q", tt.value)
	}

	assert.True(t, getBoolConfigValue("", "UNSET_KEY", true), "default applies when unset")
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("30s", "UNSET_KEY", "15s")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	d, err = parseDurationValue("", "UNSET_KEY", "15s")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	_, err = parseDurationValue("not-a-duration", "UNSET_KEY", "15s")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:    AppConfig{Environment: "development"},
			Logger: LoggerConfig{Level: "info"},
			Data:   DataConfig{BasePath: "/tmp/bookea"},
			Catalog: CatalogConfig{
				OpenLibraryURL: "https://openlibrary.org",
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad environment", func(t *testing.T) {
		cfg := valid()
		cfg.App.Environment = "testing"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty data path", func(t *testing.T) {
		cfg := valid()
		cfg.Data.BasePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("no catalog providers", func(t *testing.T) {
		cfg := valid()
		cfg.Catalog.OpenLibraryURL = ""
		cfg.Catalog.GoogleBooksURL = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestExpandDataPaths(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "/tmp/bookea-data"}}
	require.NoError(t, cfg.expandDataPaths())

	assert.Equal(t, "/tmp/bookea-data", cfg.Data.BasePath)
	assert.Equal(t, filepath.Join("/tmp/bookea-data", "library.json"), cfg.Data.SnapshotPath)
	assert.Equal(t, filepath.Join("/tmp/bookea-data", "covers"), cfg.Data.CoversPath)
}

func TestExpandDataPathsKeepsExplicitSnapshot(t *testing.T) {
	cfg := &Config{Data: DataConfig{
		BasePath:     "/tmp/bookea-data",
		SnapshotPath: "/var/lib/bookea/library.json",
	}}
	require.NoError(t, cfg.expandDataPaths())
	assert.Equal(t, "/var/lib/bookea/library.json", cfg.Data.SnapshotPath)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nBOOKEA_ENV_A=hello\nBOOKEA_ENV_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Setenv("BOOKEA_ENV_A", "")
	t.Setenv("BOOKEA_ENV_B", "")
	os.Unsetenv("BOOKEA_ENV_A")
	os.Unsetenv("BOOKEA_ENV_B")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("BOOKEA_ENV_A"))
	assert.Equal(t, "quoted", os.Getenv("BOOKEA_ENV_B"))
}

func TestLoadEnvFileRejectsBadLines(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("not a pair\n"), 0o600))

	assert.Error(t, loadEnvFile(envPath))
}
