// Package config provides configuration management for bookc.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the compiler configuration.
type Config struct {
	Catalog CatalogConfig `toml:"catalog"`
	AI      AIConfig      `toml:"ai"`
	API     APIConfig     `toml:"api"`
	MCP     MCPConfig     `toml:"mcp"`
	Logging LoggingConfig `toml:"logging"`
}

// CatalogConfig contains library-catalog and cache settings.
type CatalogConfig struct {
	BaseURL         string `toml:"base_url"`
	CacheDir        string `toml:"cache_dir"`
	DownloadTimeout int    `toml:"download_timeout_seconds"`
	MediaTimeout    int    `toml:"media_timeout_seconds"`
}

// AIConfig contains external text-generation service settings.
// Credentials are consulted only by the AI generation protocol (C7);
// their absence degrades AI-assisted handlers to fallback fragments,
// it never fails the build.
type AIConfig struct {
	Provider    string  `toml:"provider"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	TimeoutSecs int     `toml:"timeout_seconds"`
}

// APIConfig contains the optional build-status HTTP server settings.
type APIConfig struct {
	Enabled        bool     `toml:"enabled"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// MCPConfig contains the optional MCP tool-server settings.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string      `toml:"level"`
	Format     string      `toml:"format"`
	Output     StringSlice `toml:"output"`
	TimeFormat string      `toml:"time_format"`
	MaxSizeMB  int         `toml:"max_size_mb"`
	MaxBackups int         `toml:"max_backups"`
	DataDir    string      `toml:"data_dir"`
}

// StringSlice unmarshals from either a single string or an array of strings.
type StringSlice []string

// UnmarshalTOML implements toml.Unmarshaler for flexible config parsing.
func (s *StringSlice) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*s = []string{v}
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string in array, got %T", item)
			}
			result[i] = str
		}
		*s = result
	default:
		return fmt.Errorf("expected string or array, got %T", data)
	}
	return nil
}

// DefaultConfig returns the default configuration.
// BOOKC_CATALOG_URL and BOOKC_CACHE_DIR override the catalog defaults,
// BOOKC_AI_API_KEY overrides the AI credential.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	baseURL := "https://api.h5p.org/v1/content-types"
	if v := os.Getenv("BOOKC_CATALOG_URL"); v != "" {
		baseURL = v
	}

	cacheDir := filepath.Join(dataDir, "libraries")
	if v := os.Getenv("BOOKC_CACHE_DIR"); v != "" {
		cacheDir = v
	}

	apiKey := os.Getenv("BOOKC_AI_API_KEY")

	return &Config{
		Catalog: CatalogConfig{
			BaseURL:         baseURL,
			CacheDir:        cacheDir,
			DownloadTimeout: 60,
			MediaTimeout:    30,
		},
		AI: AIConfig{
			Provider:    "gemini",
			APIKey:      apiKey,
			Model:       "gemini-1.5-flash",
			MaxTokens:   2048,
			Temperature: 0.5,
			TimeoutSecs: 45,
		},
		API: APIConfig{
			Enabled:        false,
			Host:           "127.0.0.1",
			Port:           8520,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		MCP: MCPConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     StringSlice{"console"},
			TimeFormat: "15:04:05.000",
			MaxSizeMB:  100,
			MaxBackups: 5,
			DataDir:    dataDir,
		},
	}
}

// DefaultDataDir returns the default data directory based on OS.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "bookc")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "bookc")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "bookc")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "bookc")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".bookc")
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.toml")
}

// Load loads configuration from a file, merging with defaults.
// A missing file is not an error; defaults (with env overrides) are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// LoadFromString loads configuration from a TOML string, merging with defaults.
func LoadFromString(tomlStr string) (*Config, error) {
	cfg := DefaultConfig()

	expanded := os.ExpandEnv(tomlStr)
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config string: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// expandPaths expands a leading "~/" in path fields.
func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	expandTilde := func(path string) string {
		if strings.HasPrefix(path, "~/") {
			return filepath.Join(home, path[2:])
		}
		return path
	}

	c.Catalog.CacheDir = expandTilde(c.Catalog.CacheDir)
	c.Logging.DataDir = expandTilde(c.Logging.DataDir)
}

// Save saves the configuration to a file in TOML format.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}
