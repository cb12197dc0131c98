package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API         APIConfig         `toml:"api"`
	Capture     CaptureConfig     `toml:"capture"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// APIConfig contains the upstream metadata API settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// RequestsPerSecond bounds outbound metadata calls across all channel
	// schedulers combined.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CaptureConfig contains the track capture engine settings.
type CaptureConfig struct {
	// LibraryRoot is the destination tree; each channel gets a subdirectory.
	LibraryRoot string `toml:"library_root"`
	// StreamURL is the live transport consumed by the recording subprocess.
	// Channel keys are substituted for the "{channel}" placeholder when present.
	StreamURL string `toml:"stream_url"`
	// Channels are upstream channel keys to capture concurrently.
	Channels []string `toml:"channels"`
	// Recorder is the recording binary, ffmpeg by default.
	Recorder string `toml:"recorder"`
}

// CredentialsConfig contains upstream member credentials for the
// authenticated routine endpoint. Both fields empty means anonymous mode:
// captures fall back to the recording strategy only.
type CredentialsConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DatabaseConfig contains capture-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP library server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// Favorites are channel keys listed first in the library index.
	Favorites []string `toml:"favorites"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
