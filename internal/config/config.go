package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Transport names accepted by the client.
const (
	TransportAuto = "auto"
	TransportWS   = "ws"
	TransportPoll = "poll"
)

// Config holds client and reference-server settings.
type Config struct {
	Client ClientConfig `toml:"client"`
	Server ServerConfig `toml:"server"`
}

// ClientConfig controls how the client reaches the map server.
type ClientConfig struct {
	ServerURL string `toml:"server_url"` // http(s) base; ws(s) is derived
	Transport string `toml:"transport"`  // auto | ws | poll
	Cookie    string `toml:"cookie"`     // raw Cookie header, sent with HELO
	LogFile   string `toml:"log_file"`   // where the TUI writes log lines
}

// ServerConfig controls the reference server.
type ServerConfig struct {
	Listen            string `toml:"listen"`
	DBPath            string `toml:"db_path"`
	CookieSecret      string `toml:"cookie_secret"`
	AutocompleteLimit int    `toml:"autocomplete_limit"`
	LogLimit          int    `toml:"log_limit"`
	LogRetentionDays  int    `toml:"log_retention_days"` // 0 keeps everything
	HomeSystem        string `toml:"home_system"`        // added with class "home"
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:8888",
			Transport: TransportAuto,
			LogFile:   filepath.Join(os.TempDir(), "eve-chainmap.log"),
		},
		Server: ServerConfig{
			Listen:            "127.0.0.1:8888",
			DBPath:            "chainmap.db",
			AutocompleteLimit: 15,
			LogLimit:          50,
			LogRetentionDays:  90,
		},
	}
}

// Dir returns the config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "eve-chainmap")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CHAINMAP_* environment variables.
func (c *Config) ApplyEnv() {
	c.Client.ServerURL = envOrDefault("CHAINMAP_SERVER", c.Client.ServerURL)
	c.Client.Transport = envOrDefault("CHAINMAP_TRANSPORT", c.Client.Transport)
	c.Client.Cookie = envOrDefault("CHAINMAP_COOKIE", c.Client.Cookie)
	c.Server.CookieSecret = envOrDefault("CHAINMAP_SECRET", c.Server.CookieSecret)
	c.Server.DBPath = envOrDefault("CHAINMAP_DB", c.Server.DBPath)
	c.Server.HomeSystem = envOrDefault("CHAINMAP_HOME", c.Server.HomeSystem)
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Client.Transport) {
	case TransportAuto, TransportWS, TransportPoll:
		c.Client.Transport = strings.ToLower(c.Client.Transport)
	default:
		return fmt.Errorf("config: unknown transport %q (want auto, ws or poll)", c.Client.Transport)
	}
	if c.Client.ServerURL == "" {
		return fmt.Errorf("config: server_url is empty")
	}
	if c.Server.AutocompleteLimit <= 0 {
		c.Server.AutocompleteLimit = 15
	}
	if c.Server.LogLimit <= 0 {
		c.Server.LogLimit = 50
	}
	if c.Server.LogRetentionDays < 0 {
		c.Server.LogRetentionDays = 0
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
