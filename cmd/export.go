package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wavecap/internal/library"
	"github.com/desertthunder/wavecap/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes per-channel track listings to export files.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	store := library.NewStore(config.Capture.LibraryRoot, config.Server.Favorites, r.logger)
	if _, err := store.Rescan(); err != nil {
		return fmt.Errorf("failed to scan library: %w", err)
	}

	engine := tasks.NewExportEngine(store)

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			if update.Err != nil {
				r.logger.Warn("channel export failed", "channel", update.Channel, "error", update.Err)
				continue
			}
			r.logger.Info(update.Message, "channel", update.Channel)
		}
	}()

	result, err := engine.BulkExport(ctx, prog, tasks.BulkExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Channels:  cmd.StringSlice("channel"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Library Export")
	r.writePlain("%-14s %d\n", "channels", result.TotalChannels)
	r.writePlain("%-14s %d\n", "succeeded", result.Succeeded)
	r.writePlain("%-14s %d\n", "failed", result.Failed)
	r.writePlain("%-14s %s\n", "manifest", result.ManifestPath)
	return nil
}

// exportCommand writes channel track listings to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export channel track listings to files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.StringSliceFlag{
				Name:  "channel",
				Usage: "Channel key to export (repeatable, defaults to all)",
			},
		},
		Action: r.Export,
	}
}
