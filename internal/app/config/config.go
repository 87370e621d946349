package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/issafronov/siteredirect/internal/app/models"
)

// Значения по умолчанию
const (
	defaultServerAddress    = "localhost:8080"
	defaultSiteURL          = "http://localhost:8080"
	defaultLoggerLevel      = "info"
	defaultSettingsFilePath = "internal/app/storage/settings.json"
	defaultAdminPathPrefix  = "/api/admin"
	defaultLoginPath        = "/login"
	defaultRedirectType     = "301"
	defaultCacheSize        = 1024
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	ServerAddress     string        `json:"server_address" env:"SERVER_ADDRESS" envDefault:"localhost:8080" validate:"required,hostname_port"`
	SiteURL           string        `json:"site_url" env:"SITE_URL" envDefault:"http://localhost:8080" validate:"required,url"`
	LoggerLevel       string        `json:"log_level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile           string        `json:"log_file" env:"LOG_FILE"`
	SettingsFilePath  string        `json:"settings_file_path" env:"SETTINGS_FILE_PATH" envDefault:"internal/app/storage/settings.json"`
	DatabaseDSN       string        `json:"database_dsn" env:"DATABASE_DSN"`
	EnableHTTPS       bool          `json:"enable_https" env:"ENABLE_HTTPS"`
	TLSCertFile       string        `json:"tls_cert_file" env:"TLS_CERT_FILE" validate:"required_if=EnableHTTPS true"`
	TLSKeyFile        string        `json:"tls_key_file" env:"TLS_KEY_FILE" validate:"required_if=EnableHTTPS true"`
	ConfigFile        string        `json:"-" env:"CONFIG"`
	TrustedSubnet     string        `json:"trusted_subnet" env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	AdminPathPrefix   string        `json:"admin_path_prefix" env:"ADMIN_PATH_PREFIX" envDefault:"/api/admin" validate:"required,startswith=/"`
	LoginPath         string        `json:"login_path" env:"LOGIN_PATH" envDefault:"/login" validate:"required,startswith=/"`
	AdminPassword     string        `json:"admin_password" env:"ADMIN_PASSWORD"`
	SecretKey         string        `json:"-" env:"SECRET_KEY" envDefault:"secret"`
	PprofAddress      string        `json:"pprof_address" env:"PPROF_ADDRESS" validate:"omitempty,hostname_port"`
	MetricsEnabled    bool          `json:"metrics_enabled" env:"METRICS_ENABLED" envDefault:"true"`
	DecisionCacheSize int           `json:"decision_cache_size" env:"DECISION_CACHE_SIZE" envDefault:"1024" validate:"gte=0"`
	DecisionCacheTTL  time.Duration `json:"-" env:"DECISION_CACHE_TTL" envDefault:"10m"`

	// Начальные настройки перенаправления; записываются в хранилище, если оно пустое
	RedirectEnabled     bool     `json:"redirect_enabled" env:"REDIRECT_ENABLED"`
	RedirectURL         string   `json:"redirect_url" env:"REDIRECT_URL"`
	RedirectType        string   `json:"redirect_type" env:"REDIRECT_TYPE" envDefault:"301"`
	PreservePath        bool     `json:"preserve_path" env:"PRESERVE_PATH" envDefault:"true"`
	ExcludedPaths       []string `json:"excluded_paths" env:"EXCLUDED_PATHS" envSeparator:","`
	ExcludedQueryParams string   `json:"excluded_query_params" env:"EXCLUDED_QUERY_PARAMS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и флагов командной строки или JSON конфиг файла
func LoadConfig() *Config {
	config, err := LoadConfigFromArgs(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return config
}

// LoadConfigFromArgs загружает конфигурацию с указанными аргументами командной строки.
// Приоритет: флаги, затем окружение, затем JSON файл, затем значения по умолчанию.
func LoadConfigFromArgs(args []string) (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("siteredirect", flag.ContinueOnError)
	ParseFlags(fs, config)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if config.ConfigFile != "" {
		fileConfig, err := loadConfigFromFile(config.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		mergeConfigs(config, fileConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseFlags регистрирует флаги командной строки для параметров конфигурации.
// Текущие значения config используются как значения по умолчанию.
func ParseFlags(fs *flag.FlagSet, config *Config) {
	fs.StringVar(&config.ServerAddress, "a", config.ServerAddress, "address and port to run server")
	fs.StringVar(&config.SiteURL, "b", config.SiteURL, "public base URL of this site")
	fs.StringVar(&config.LoggerLevel, "l", config.LoggerLevel, "log level")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "rotating log file path")
	fs.StringVar(&config.SettingsFilePath, "f", config.SettingsFilePath, "settings file path")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.BoolVar(&config.EnableHTTPS, "s", config.EnableHTTPS, "enable HTTPS")
	fs.StringVar(&config.TrustedSubnet, "t", config.TrustedSubnet, "trusted subnet for the admin API in CIDR format")
	fs.StringVar(&config.ConfigFile, "c", config.ConfigFile, "JSON config file")
	fs.StringVar(&config.PprofAddress, "p", config.PprofAddress, "pprof listen address")
	fs.StringVar(&config.RedirectURL, "r", config.RedirectURL, "initial redirect target URL")
	fs.BoolVar(&config.RedirectEnabled, "e", config.RedirectEnabled, "enable redirect on first start")
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InitialSettings возвращает начальные настройки перенаправления в виде входных данных формы
func (c *Config) InitialSettings() models.SettingsInput {
	preserve := strconv.FormatBool(c.PreservePath)
	return models.SettingsInput{
		Enabled:             strconv.FormatBool(c.RedirectEnabled),
		TargetURL:           c.RedirectURL,
		RedirectType:        c.RedirectType,
		PreservePath:        &preserve,
		ExcludedPaths:       c.ExcludedPaths,
		ExcludedQueryParams: c.ExcludedQueryParams,
	}
}

// IsLoginPath сообщает, ведёт ли путь на страницу входа администратора
func (c *Config) IsLoginPath(path string) bool {
	return path == c.LoginPath || strings.HasPrefix(path, c.LoginPath+"/")
}

// IsAdminPath сообщает, относится ли путь к API администратора
func (c *Config) IsAdminPath(path string) bool {
	prefix := strings.TrimRight(c.AdminPathPrefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func loadConfigFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeString переносит значение из файла, только если в dst осталось значение по умолчанию
func mergeString(dst *string, src, def string) {
	if src != "" && *dst == def {
		*dst = src
	}
}

func mergeConfigs(dst, src *Config) {
	mergeString(&dst.ServerAddress, src.ServerAddress, defaultServerAddress)
	mergeString(&dst.SiteURL, src.SiteURL, defaultSiteURL)
	mergeString(&dst.LoggerLevel, src.LoggerLevel, defaultLoggerLevel)
	mergeString(&dst.LogFile, src.LogFile, "")
	mergeString(&dst.SettingsFilePath, src.SettingsFilePath, defaultSettingsFilePath)
	mergeString(&dst.DatabaseDSN, src.DatabaseDSN, "")
	mergeString(&dst.TLSCertFile, src.TLSCertFile, "")
	mergeString(&dst.TLSKeyFile, src.TLSKeyFile, "")
	mergeString(&dst.TrustedSubnet, src.TrustedSubnet, "")
	mergeString(&dst.AdminPathPrefix, src.AdminPathPrefix, defaultAdminPathPrefix)
	mergeString(&dst.LoginPath, src.LoginPath, defaultLoginPath)
	mergeString(&dst.AdminPassword, src.AdminPassword, "")
	mergeString(&dst.PprofAddress, src.PprofAddress, "")
	mergeString(&dst.RedirectURL, src.RedirectURL, "")
	mergeString(&dst.RedirectType, src.RedirectType, defaultRedirectType)
	mergeString(&dst.ExcludedQueryParams, src.ExcludedQueryParams, "")

	if src.EnableHTTPS && !dst.EnableHTTPS {
		dst.EnableHTTPS = true
	}
	if src.RedirectEnabled && !dst.RedirectEnabled {
		dst.RedirectEnabled = true
	}
	if src.DecisionCacheSize != 0 && dst.DecisionCacheSize == defaultCacheSize {
		dst.DecisionCacheSize = src.DecisionCacheSize
	}
	if len(src.ExcludedPaths) > 0 && len(dst.ExcludedPaths) == 0 {
		dst.ExcludedPaths = src.ExcludedPaths
	}
}
