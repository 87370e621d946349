package config_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/issafronov/siteredirect/internal/app/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "testhost:9999")
	t.Setenv("SITE_URL", "http://testhost")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SETTINGS_FILE_PATH", "/tmp/test.json")
	t.Setenv("DATABASE_DSN", "dsn")

	// очистим аргументы флагов, чтобы не мешали тесту
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"test"}

	cfg := config.LoadConfig()

	assert.Equal(t, "testhost:9999", cfg.ServerAddress)
	assert.Equal(t, "http://testhost", cfg.SiteURL)
	assert.Equal(t, "warn", cfg.LoggerLevel)
	assert.Equal(t, "/tmp/test.json", cfg.SettingsFilePath)
	assert.Equal(t, "dsn", cfg.DatabaseDSN)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("SITE_URL", "http://example.com")
	t.Setenv("REDIRECT_ENABLED", "true")
	t.Setenv("REDIRECT_URL", "https://other.com/base")
	t.Setenv("REDIRECT_TYPE", "302")
	t.Setenv("EXCLUDED_PATHS", "/keep,/also")
	t.Setenv("DECISION_CACHE_TTL", "30s")

	cfg := &config.Config{}
	err := env.Parse(cfg)
	require.NoError(t, err)

	// Флаги игнорируются в этом тесте — только env
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	assert.Equal(t, "http://example.com", cfg.SiteURL)
	assert.True(t, cfg.RedirectEnabled)
	assert.Equal(t, "https://other.com/base", cfg.RedirectURL)
	assert.Equal(t, "302", cfg.RedirectType)
	assert.True(t, cfg.PreservePath)
	assert.Equal(t, []string{"/keep", "/also"}, cfg.ExcludedPaths)
	assert.Equal(t, 30*time.Second, cfg.DecisionCacheTTL)
	assert.Equal(t, "/api/admin", cfg.AdminPathPrefix)
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)

	cfg := &config.Config{
		ServerAddress:    "default:8000",
		SiteURL:          "http://default",
		LoggerLevel:      "info",
		SettingsFilePath: "/default/path.json",
		DatabaseDSN:      "default-dsn",
	}
	config.ParseFlags(fs, cfg)

	args := []string{
		"-a=0.0.0.0:9999",
		"-b=http://cli.example.com",
		"-l=error",
		"-f=/tmp/cli.json",
		"-d=cli-dsn",
		"-r=https://target.example.com",
		"-e",
	}

	err := fs.Parse(args)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.ServerAddress)
	assert.Equal(t, "http://cli.example.com", cfg.SiteURL)
	assert.Equal(t, "error", cfg.LoggerLevel)
	assert.Equal(t, "/tmp/cli.json", cfg.SettingsFilePath)
	assert.Equal(t, "cli-dsn", cfg.DatabaseDSN)
	assert.Equal(t, "https://target.example.com", cfg.RedirectURL)
	assert.True(t, cfg.RedirectEnabled)
}

func TestLoadConfigFromArgs_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server_address": "filehost:7000",
		"site_url": "https://file.example.com",
		"redirect_url": "https://target.example.com",
		"redirect_type": "302",
		"excluded_paths": ["/from-file"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfigFromArgs([]string{"-c", path, "-a", "flaghost:6000"})
	require.NoError(t, err)

	// флаг важнее файла
	assert.Equal(t, "flaghost:6000", cfg.ServerAddress)
	assert.Equal(t, "https://file.example.com", cfg.SiteURL)
	assert.Equal(t, "https://target.example.com", cfg.RedirectURL)
	assert.Equal(t, "302", cfg.RedirectType)
	assert.Equal(t, []string{"/from-file"}, cfg.ExcludedPaths)
}

func TestLoadConfigFromArgs_Invalid(t *testing.T) {
	_, err := config.LoadConfigFromArgs([]string{"-t", "not-a-cidr"})
	assert.Error(t, err)

	_, err = config.LoadConfigFromArgs([]string{"-l", "verbose"})
	assert.Error(t, err)

	_, err = config.LoadConfigFromArgs([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	_, err = config.LoadConfigFromArgs([]string{"-s"})
	assert.Error(t, err, "https without certificate files")
}

func TestInitialSettings(t *testing.T) {
	cfg := &config.Config{
		RedirectEnabled:     true,
		RedirectURL:         "https://other.com",
		RedirectType:        "302",
		PreservePath:        false,
		ExcludedPaths:       []string{"/a"},
		ExcludedQueryParams: "x",
	}
	in := cfg.InitialSettings()

	assert.Equal(t, "true", in.Enabled)
	assert.Equal(t, "https://other.com", in.TargetURL)
	assert.Equal(t, "302", in.RedirectType)
	require.NotNil(t, in.PreservePath)
	assert.Equal(t, "false", *in.PreservePath)
	assert.Equal(t, []string{"/a"}, in.ExcludedPaths)
	assert.Equal(t, "x", in.ExcludedQueryParams)
}

func TestAdminAndLoginPaths(t *testing.T) {
	cfg := &config.Config{AdminPathPrefix: "/api/admin/", LoginPath: "/login"}

	assert.True(t, cfg.IsAdminPath("/api/admin"))
	assert.True(t, cfg.IsAdminPath("/api/admin/settings"))
	assert.False(t, cfg.IsAdminPath("/api/administrator"))

	assert.True(t, cfg.IsLoginPath("/login"))
	assert.False(t, cfg.IsLoginPath("/loginx"))
}
