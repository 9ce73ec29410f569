package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Preferences  PreferencesConfig  `mapstructure:"preferences"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// APIConfig holds remote catalog configuration
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Resource  string        `mapstructure:"resource"` // path segment, e.g. "anime"
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
}

// SyncConfig holds cache freshness and paging configuration
type SyncConfig struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
	PageSize   int           `mapstructure:"page_size"`
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // empty keeps the cache in memory only
}

// ConnectivityConfig holds reachability probe configuration
type ConnectivityConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	OfflineAfter  int           `mapstructure:"offline_after"` // consecutive failures before reporting offline
}

// PreferencesConfig holds user preferences
type PreferencesConfig struct {
	ShowImages bool `mapstructure:"show_images"` // Print cover image URLs in listings
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.jikan.moe/v4",
			Resource:  "anime",
			Timeout:   30 * time.Second,
			RateLimit: 2,
		},
		Sync: SyncConfig{
			StaleAfter: time.Hour,
			PageSize:   25,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: 15 * time.Second,
			ProbeTimeout:  3 * time.Second,
			OfflineAfter:  2,
		},
		Preferences: PreferencesConfig{
			ShowImages: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "anidex", "anidex.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "anidex", "anidex.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "anidex")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "anidex")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "anidex", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "anidex", "cache")
	}
}

// newViper returns a viper instance seeded with every default so that
// environment overrides apply to keys absent from the config file.
func newViper() *viper.Viper {
	v := viper.New()
	setValues(v.SetDefault, DefaultConfig())

	v.SetEnvPrefix("ANIDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

func setValues(set func(string, any), cfg *Config) {
	set("api.base_url", cfg.API.BaseURL)
	set("api.resource", cfg.API.Resource)
	set("api.timeout", cfg.API.Timeout)
	set("api.rate_limit", cfg.API.RateLimit)

	set("sync.stale_after", cfg.Sync.StaleAfter)
	set("sync.page_size", cfg.Sync.PageSize)

	set("cache.dir", cfg.Cache.Dir)

	set("connectivity.probe_interval", cfg.Connectivity.ProbeInterval)
	set("connectivity.probe_timeout", cfg.Connectivity.ProbeTimeout)
	set("connectivity.offline_after", cfg.Connectivity.OfflineAfter)

	set("preferences.show_images", cfg.Preferences.ShowImages)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment.
// An empty configFile searches the default config directory and the working
// directory; a missing file there is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Cache.Dir = ExpandPath(cfg.Cache.Dir)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the sync core cannot work with
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("api.base_url is required")
	case c.API.Resource == "":
		return fmt.Errorf("api.resource is required")
	case c.Sync.StaleAfter < 0:
		return fmt.Errorf("sync.stale_after must not be negative")
	case c.Sync.PageSize < 1 || c.Sync.PageSize > 25:
		return fmt.Errorf("sync.page_size must be between 1 and 25")
	case c.Connectivity.OfflineAfter < 1:
		return fmt.Errorf("connectivity.offline_after must be at least 1")
	}
	return nil
}

// SaveConfig writes cfg as YAML. An empty path writes config.yaml in the
// default config directory. Returns the path written.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = filepath.Join(defaultConfigPath(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	// Durations are written in their string form so the file stays readable
	setValues(func(key string, value any) {
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}, cfg)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
