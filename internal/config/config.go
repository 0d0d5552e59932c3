package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Server settings
	Port     string `json:"port" toml:"port"`
	LogLevel string `json:"log_level" toml:"log_level"`

	// Browser settings
	BrowserURL               string `json:"browser_url" toml:"browser_url"` // base URL; the websocket URL is fetched from /json/version
	MaxMessageSize           int    `json:"max_message_size" toml:"max_message_size"`
	ConnectionTimeoutSeconds int    `json:"connection_timeout_seconds" toml:"connection_timeout_seconds"`

	// Dispatch settings
	DedupCacheSize int    `json:"dedup_cache_size" toml:"dedup_cache_size"`
	CatalogPath    string `json:"catalog_path" toml:"catalog_path"` // optional extra catalog merged over the built-in seed
}

// Load loads configuration from a file named by CONFIG_PATH (TOML or JSON by
// extension) or from environment variables.
func Load() (*Config, error) {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if cfg, err := loadFile(configPath); err == nil {
			cfg.applyDefaults()
			return cfg, nil
		}
	}

	cfg := DefaultConfig()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if browserURL := os.Getenv("BROWSER_URL"); browserURL != "" {
		cfg.BrowserURL = browserURL
	}
	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		if size, err := strconv.Atoi(maxSize); err == nil {
			cfg.MaxMessageSize = size
		}
	}
	if timeout := os.Getenv("CONNECTION_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.ConnectionTimeoutSeconds = t
		}
	}
	if dedup := os.Getenv("DEDUP_CACHE_SIZE"); dedup != "" {
		if n, err := strconv.Atoi(dedup); err == nil {
			cfg.DedupCacheSize = n
		}
	}
	if catalogPath := os.Getenv("CATALOG_PATH"); catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}

	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := &Config{}

	if filepath.Ext(path) == ".toml" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.BrowserURL == "" {
		c.BrowserURL = def.BrowserURL
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.ConnectionTimeoutSeconds == 0 {
		c.ConnectionTimeoutSeconds = def.ConnectionTimeoutSeconds
	}
	if c.DedupCacheSize == 0 {
		c.DedupCacheSize = def.DedupCacheSize
	}
}

func DefaultConfig() *Config {
	return &Config{
		Port:                     "8080",
		LogLevel:                 "info",
		BrowserURL:               "http://localhost:9222",
		MaxMessageSize:           1024 * 1024,
		ConnectionTimeoutSeconds: 10,
		DedupCacheSize:           1024,
	}
}
