package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./reshuffle.db" {
			t.Errorf("expected database path ./reshuffle.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Reshuffle.Target != "Reshuffle" {
			t.Errorf("expected default target Reshuffle, got %s", config.Reshuffle.Target)
		}

		if config.Reshuffle.BatchSize != 100 {
			t.Errorf("expected batch size 100, got %d", config.Reshuffle.BatchSize)
		}

		if config.Reshuffle.SearchLimit != 50 {
			t.Errorf("expected search limit 50, got %d", config.Reshuffle.SearchLimit)
		}

		if config.Reshuffle.Market != "US" {
			t.Errorf("expected market US, got %s", config.Reshuffle.Market)
		}

		if config.Reshuffle.Description != "Automatically generated shuffled playlist" {
			t.Errorf("unexpected description %q", config.Reshuffle.Description)
		}

		if config.History.Enabled {
			t.Error("expected history to be disabled by default")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[reshuffle]
sources = ["37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DX0XUsuxWHRQd"]
include_liked = true
target = "Morning Mix"

[server]
port = 9999
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Reshuffle.Sources) != 2 || !config.Reshuffle.IncludeLiked {
			t.Errorf("unexpected reshuffle section %+v", config.Reshuffle)
		}

		if config.Server.Port != 9999 {
			t.Errorf("expected server port 9999, got %d", config.Server.Port)
		}

		if config.Reshuffle.BatchSize != 100 {
			t.Errorf("keys missing from the file should keep defaults, got batch size %d", config.Reshuffle.BatchSize)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[reshuffle\ntarget ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ValidateCredentials", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.ValidateCredentials(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		if err := config.ValidateCredentials(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client_id")
		t.Setenv("RESHUFFLE_TARGET", "Env Target")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientSecret = "from_file"

		if err := ApplyEnv(config); err != nil {
			t.Fatalf("failed to apply env: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_client_id" {
			t.Errorf("expected client id from env, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Reshuffle.Target != "Env Target" {
			t.Errorf("expected target from env, got %s", config.Reshuffle.Target)
		}
		if config.Credentials.Spotify.ClientSecret != "from_file" {
			t.Errorf("unset variables should not override, got %s", config.Credentials.Spotify.ClientSecret)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("RESHUFFLE_TEST_DOTENV=loaded\n"), 0644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("RESHUFFLE_TEST_DOTENV") })

		if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"), envPath); err != nil {
			t.Fatalf("failed to load env: %v", err)
		}

		if got := os.Getenv("RESHUFFLE_TEST_DOTENV"); got != "loaded" {
			t.Errorf("expected variable from .env, got %q", got)
		}
	})
}
