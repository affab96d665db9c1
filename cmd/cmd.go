// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// runFlags returns the flags of the run action. The root command declares them local so that
// other subcommands do not inherit them.
func runFlags(local bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source-playlists",
			Aliases: []string{"s"},
			Usage:   "Comma-separated playlist IDs, URIs or links (default: [reshuffle] sources)",
			Local:   local,
		},
		&cli.StringFlag{
			Name:    "target-playlist-name",
			Aliases: []string{"t"},
			Usage:   "Name of the playlist to overwrite (default: [reshuffle] target)",
			Local:   local,
		},
		&cli.BoolFlag{
			Name:  "include-liked",
			Usage: "Add Liked Songs to the sources",
			Local: local,
		},
		&cli.StringFlag{
			Name:  "cache-path",
			Usage: "Path of the OAuth token cache (default: [credentials.spotify] token_cache)",
			Local: local,
		},
		&cli.StringFlag{
			Name:  "market",
			Usage: "Market code used to list source tracks (default: [reshuffle] market)",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the run result as JSON",
			Local: local,
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive progress view",
			Local: local,
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation of the interactive view",
			Local:   local,
		},
	}
}

// runCommand runs the reshuffle pipeline.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Collect, shuffle and write the target playlist",
		Flags:  runFlags(false),
		Action: r.Run,
	}
}

// authCommand runs the OAuth2 authorization flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize reshuffle with Spotify and cache the token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cache-path",
				Usage: "Path of the OAuth token cache (default: [credentials.spotify] token_cache)",
			},
		},
		Action: r.Auth,
	}
}

// historyCommand lists and manages the run journal.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past runs recorded in the journal",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show (0 for all)",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (running, completed, empty, failed)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "delete",
				Usage: "Remove a run from the journal",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run journal and apply migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
