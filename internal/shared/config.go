package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Reshuffle   ReshuffleConfig   `toml:"reshuffle"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	History     HistoryConfig     `toml:"history"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the location of the token cache.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	TokenCache   string `toml:"token_cache" env:"SPOTIFY_TOKEN_CACHE"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (c SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// TokenCachePath expands a leading "~" in the token cache path.
func (c SpotifyConfig) TokenCachePath() string {
	return ExpandHome(c.TokenCache)
}

// ReshuffleConfig holds the default run parameters. CLI flags take precedence.
type ReshuffleConfig struct {
	Sources      []string `toml:"sources"`
	IncludeLiked bool     `toml:"include_liked"`
	Target       string   `toml:"target" env:"RESHUFFLE_TARGET"`
	Market       string   `toml:"market" env:"RESHUFFLE_MARKET"`
	Description  string   `toml:"description"`
	SearchLimit  int      `toml:"search_limit"`
	BatchSize    int      `toml:"batch_size"`
}

// APIConfig controls the HTTP client used for the Spotify Web API.
type APIConfig struct {
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"RESHUFFLE_DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// HistoryConfig toggles the run journal.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateCredentials reports a missing client id or secret as [ErrMissingCredentials].
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: spotify %s must be set in config.toml or via SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET",
			ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
