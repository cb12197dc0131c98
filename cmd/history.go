package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recent capture records, optionally scoped to one channel.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path not configured", shared.ErrInvalidConfig)
	}

	repo, closeDB, err := r.openHistory(config)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer closeDB()

	limit := int(cmd.Int("limit"))
	var records []models.CaptureRecord
	if key := cmd.String("channel"); key != "" {
		records, err = repo.ByChannel(ctx, key, limit)
	} else {
		records, err = repo.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Capture History")
	if len(records) == 0 {
		r.writePlain("no captures recorded\n")
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("#%-5d %-16s %-10s %-9s %s - %s",
			rec.Sequence, rec.ChannelKey, rec.Status, rec.Strategy, rec.Artist, rec.Title)
		if rec.Error != "" {
			line += fmt.Sprintf(" (%s)", rec.Error)
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// HistorySummary shows capture counts grouped by job status.
func (r *Runner) HistorySummary(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path not configured", shared.ErrInvalidConfig)
	}

	repo, closeDB, err := r.openHistory(config)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer closeDB()

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Capture Summary")
	total := 0
	for _, status := range []models.JobStatus{
		models.JobSucceeded, models.JobFailed, models.JobSkipped, models.JobInProgress, models.JobPending,
	} {
		if n, ok := counts[status]; ok {
			r.writePlain("%-14s %d\n", status, n)
			total += n
		}
	}
	r.writePlain("%-14s %d\n", "total", total)
	return nil
}
