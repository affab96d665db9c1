package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/reshuffle/internal/services"
	"github.com/desertthunder/reshuffle/internal/shared"
	"github.com/desertthunder/reshuffle/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	authorize  func(ctx context.Context, svc *services.SpotifyService) (*oauth2.Token, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// Catalog replaces the Spotify connection built from the config, for tests.
	Catalog    services.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.authorize = r.browserAuthorize
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, authCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig is the root Before hook. It reads the config file named by --config when it exists
// and applies environment overrides. A --config that names a missing file is an error outside setup.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if cmd.IsSet("config") && cmd.Args().First() != "setup" {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	} else {
		r.logger.Debug("no config file, using defaults", "path", path)
	}

	if err := shared.ApplyEnv(r.config); err != nil {
		return ctx, err
	}

	return ctx, nil
}

// httpClientFor returns the injected client or a rate-limited one built from the [api] section.
func (r *Runner) httpClientFor() *http.Client {
	if r.httpClient != nil {
		return r.httpClient
	}
	timeout := time.Duration(r.config.API.TimeoutSeconds) * time.Second
	return shared.NewHTTPClient(r.config.API.RateLimit, timeout)
}

// palette styles terminal output and leaves anything else plain.
func (r *Runner) palette() *ui.Palette {
	if r.output == os.Stdout {
		return ui.DefaultPalette
	}
	return ui.PlainPalette
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
