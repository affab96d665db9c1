package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	tu "github.com/desertthunder/reshuffle/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := tu.NewFakeCatalog("user1")

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Catalog:    catalog,
				HTTPClient: httpClient,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.authorize == nil {
				t.Error("expected the browser flow to be the default authorizer")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.catalog != nil {
				t.Error("expected no catalog until connect")
			}
		})

		t.Run("httpClientFor prefers the injected client", func(t *testing.T) {
			injected := &http.Client{}
			if got := NewRunner(RunnerOpts{HTTPClient: injected}).httpClientFor(); got != injected {
				t.Error("expected the injected client")
			}

			if got := NewRunner(RunnerOpts{}).httpClientFor(); got == nil || got.Timeout == 0 {
				t.Errorf("expected a client with the configured timeout, got %+v", got)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds the line with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		if !slices.Equal(names, []string{"run", "auth", "history", "setup"}) {
			t.Errorf("unexpected commands %v", names)
		}
	})
}

func TestParseSources(t *testing.T) {
	tc := []struct {
		name string
		raw  []string
		want []string
	}{
		{name: "bare ids", raw: []string{"abc", "def"}, want: []string{"abc", "def"}},
		{name: "uri", raw: []string{"spotify:playlist:abc"}, want: []string{"abc"}},
		{name: "link", raw: []string{"https://open.spotify.com/playlist/abc?si=xyz"}, want: []string{"abc"}},
		{name: "localized link", raw: []string{"https://open.spotify.com/intl-de/playlist/abc"}, want: []string{"abc"}},
		{name: "link without playlist", raw: []string{"https://open.spotify.com/album/abc"}, want: nil},
		{name: "blanks and spaces", raw: []string{" abc ", "", "  "}, want: []string{"abc"}},
		{name: "repeats across forms", raw: []string{"abc", "spotify:playlist:abc", "def"}, want: []string{"abc", "def"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSources(tt.raw); !slices.Equal(got, tt.want) {
				t.Errorf("parseSources(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	newRunner := func(t *testing.T) *Runner {
		t.Helper()
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "test_id"
		config.Credentials.Spotify.ClientSecret = "test_secret"
		return NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
	}

	t.Run("authorizes and caches when no token is cached", func(t *testing.T) {
		runner := newRunner(t)
		cachePath := filepath.Join(t.TempDir(), "tokens", "spotify.json")

		calls := 0
		runner.authorize = func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
			calls++
			return &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh"}, nil
		}

		if _, err := runner.connect(ctx, cachePath, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected one authorization, got %d", calls)
		}

		token, err := shared.LoadToken(cachePath)
		if err != nil {
			t.Fatalf("expected cached token, got %v", err)
		}
		if token.AccessToken != "fresh" {
			t.Errorf("expected cached access token fresh, got %s", token.AccessToken)
		}
	})

	t.Run("uses the cached token", func(t *testing.T) {
		runner := newRunner(t)
		cachePath := filepath.Join(t.TempDir(), "spotify.json")
		if err := shared.SaveToken(cachePath, &oauth2.Token{AccessToken: "cached", RefreshToken: "refresh"}); err != nil {
			t.Fatalf("failed to seed token cache: %v", err)
		}

		runner.authorize = func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
			t.Error("authorize should not run with a cached token")
			return nil, errors.New("unexpected")
		}

		if _, err := runner.connect(ctx, cachePath, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("force replaces the cached token", func(t *testing.T) {
		runner := newRunner(t)
		cachePath := filepath.Join(t.TempDir(), "spotify.json")
		if err := shared.SaveToken(cachePath, &oauth2.Token{AccessToken: "stale"}); err != nil {
			t.Fatalf("failed to seed token cache: %v", err)
		}

		runner.authorize = func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "forced"}, nil
		}

		if _, err := runner.connect(ctx, cachePath, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := shared.LoadToken(cachePath)
		if err != nil {
			t.Fatalf("expected cached token, got %v", err)
		}
		if token.AccessToken != "forced" {
			t.Errorf("expected forced token in cache, got %s", token.AccessToken)
		}
	})

	t.Run("authorization failure is returned and nothing is cached", func(t *testing.T) {
		runner := newRunner(t)
		cachePath := filepath.Join(t.TempDir(), "spotify.json")

		runner.authorize = func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
			return nil, shared.ErrTimeout
		}

		if _, err := runner.connect(ctx, cachePath, false); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
			t.Errorf("expected no token cache, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		runner.authorize = func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error) {
			t.Error("authorize should not run without credentials")
			return nil, nil
		}

		_, err := runner.connect(ctx, filepath.Join(t.TempDir(), "spotify.json"), false)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
