package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	StartDate    string        `yaml:"start_date"`
	ColumnPrefix string        `yaml:"column_prefix"`
	Database     Database      `yaml:"database"`
	API          API           `yaml:"api"`
	Calendar     Calendar      `yaml:"calendar"`
	Series       []SeriesGroup `yaml:"series"`
	Server       Server        `yaml:"server"`
	Logging      Logging       `yaml:"logging"`
}

type Database struct {
	Path string `yaml:"path"`
}

type API struct {
	BaseURL        string `yaml:"base_url"`
	KeyEnv         string `yaml:"key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RateLimitMS    int    `yaml:"rate_limit_ms"`
	SeriesDelayMS  int    `yaml:"series_delay_ms"`
}

type Calendar struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// SeriesGroup is one catalog category with its series, in extraction order.
type SeriesGroup struct {
	Category string   `yaml:"category"`
	IDs      []string `yaml:"ids"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for fredsync.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "fredsync")
}

// DataDir returns the XDG data directory for fredsync.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "fredsync")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/fredsync/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'fredsync init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		StartDate:    "1950-01-01",
		ColumnPrefix: "fred_",
		API: API{
			BaseURL:        "https://api.stlouisfed.org/fred",
			KeyEnv:         "FRED_API_KEY",
			TimeoutSeconds: 30,
			RateLimitMS:    100,
			SeriesDelayMS:  200,
		},
		Calendar: Calendar{
			Start: "2018-01-01",
			End:   "2030-12-31",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// DatabasePath returns the effective database path from config or XDG default.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(DataDir(), "fred_data.db")
}

// APIKey loads the FRED API key from the environment, reading a .env file
// first if one is present. Commands that never talk to the provider should
// not call this.
func (c *Config) APIKey() (string, error) {
	// .env is optional; deployed environments inject the variable directly.
	_ = godotenv.Load()

	key := os.Getenv(c.API.KeyEnv)
	if key == "" {
		return "", fmt.Errorf(
			"%s not set; add it to your environment or a .env file (get a key at https://fred.stlouisfed.org/docs/api/api_key.html)",
			c.API.KeyEnv,
		)
	}
	return key, nil
}

// AllSeries returns every catalog series id in extraction order.
func (c *Config) AllSeries() []string {
	var ids []string
	for _, g := range c.Series {
		ids = append(ids, g.IDs...)
	}
	return ids
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
