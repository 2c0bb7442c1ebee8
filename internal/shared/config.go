package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Log     LogConfig     `toml:"log"`
	Sandbox SandboxConfig `toml:"sandbox"`
}

// APIConfig points the client at a portal backend.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	EventsURL         string  `toml:"events_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SandboxConfig contains settings for the local sandbox API server.
type SandboxConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	Database            string `toml:"database"`
	PlaybooksDir        string `toml:"playbooks_dir"`
	MaxOpenConns        int    `toml:"max_open_conns"`
	MaxIdleConns        int    `toml:"max_idle_conns"`
	SimulatedDurationMS int    `toml:"simulated_duration_ms"`
}

// Addr returns the host:port listen address.
func (s SandboxConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields that cannot be defaulted at use sites.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: api.requests_per_second must not be negative", ErrInvalidConfig)
	}
	if c.Sandbox.Port < 0 || c.Sandbox.Port > 65535 {
		return fmt.Errorf("%w: sandbox.port %d out of range", ErrInvalidConfig, c.Sandbox.Port)
	}
	return nil
}

// EventsEndpoint returns the push channel URL.
//
// When events_url is unset it is derived from the API base URL: the scheme becomes ws/wss
// and the path is replaced with the Socket.IO endpoint.
func (c *Config) EventsEndpoint() (string, error) {
	if c.API.EventsURL != "" {
		return c.API.EventsURL, nil
	}
	return DeriveEventsURL(c.API.BaseURL)
}

// DeriveEventsURL maps an API base URL such as http://host:5000/api to
// ws://host:5000/socket.io/?EIO=4&transport=websocket.
func DeriveEventsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}

	u.Path = "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}
