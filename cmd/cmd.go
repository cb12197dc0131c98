// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// captureCommand runs the track capture engine.
func captureCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "capture",
		Aliases: []string{"cap"},
		Usage:   "Capture tracks from the configured channels",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringSliceFlag{
				Name:  "channel",
				Usage: "Channel key to capture (repeatable, overrides config)",
			},
			&cli.BoolFlag{
				Name:    "progress",
				Aliases: []string{"p"},
				Usage:   "Render capture progress as a terminal UI",
			},
		},
		Action: r.Capture,
	}
}

// channelsCommand resolves the configured channel keys upstream.
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "List configured channels and their upstream ids",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Channels,
	}
}

// serveCommand runs the library HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the captured library over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Bind port (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the player in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// historyCommand inspects the capture history database.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "Inspect capture history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent captures",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:  "channel",
						Usage: "Only show captures for this channel key",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.History,
			},
			{
				Name:  "summary",
				Usage: "Show capture counts by status",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.HistorySummary,
			},
		},
	}
}
