package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reshuffle/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(".env"); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := rootCommand(runner)

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		logger.Fatalf("reshuffle failed: %v", err)
	}
}

// rootCommand runs the pipeline when no subcommand is given.
func rootCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}

	return &cli.Command{
		Name:     "reshuffle",
		Usage:    "Merge Spotify playlists and Liked Songs into one shuffled playlist",
		Version:  "0.1.0",
		Flags:    append(flags, runFlags(true)...),
		Before:   r.loadConfig,
		Action:   r.Run,
		Commands: r.register(),
	}
}
