package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wavecap/internal/capture"
	"github.com/desertthunder/wavecap/internal/repositories"
	"github.com/desertthunder/wavecap/internal/shared"
	"github.com/desertthunder/wavecap/internal/ui"
	"github.com/urfave/cli/v3"
)

// Capture runs the multi-channel capture supervisor until interrupted.
//
// With --progress the run is rendered as a terminal UI and logs are
// redirected to a file so they do not fight the renderer for the terminal.
func (r *Runner) Capture(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if keys := cmd.StringSlice("channel"); len(keys) > 0 {
		config.Capture.Channels = keys
	}
	if len(config.Capture.Channels) == 0 {
		return fmt.Errorf("%w: no channels configured", shared.ErrInvalidConfig)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := capture.SupervisorOpts{
		Service:    r.metadataService(config),
		Config:     config,
		Logger:     r.logger,
		HTTPClient: r.httpClient,
	}

	repo, closeDB, err := r.openHistory(config)
	if err != nil {
		r.logger.Warn("capture history disabled", "error", err)
	}
	if closeDB != nil {
		defer closeDB()
	}
	if repo != nil {
		opts.History = repo
	}

	if !cmd.Bool("progress") {
		return capture.NewSupervisor(opts).Run(ctx)
	}

	fileLogger, err := shared.NewFileLogger("./tmp/wavecap.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	opts.Logger = fileLogger

	events := make(chan capture.Event, 64)
	opts.Events = events

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- capture.NewSupervisor(opts).Run(runCtx)
		close(events)
	}()

	p := tea.NewProgram(ui.NewModel(events))
	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("error running TUI: %w", err)
	}

	// Quitting the UI stops the capture run too.
	cancel()
	return <-errCh
}

// Channels resolves every configured channel key to its upstream id.
func (r *Runner) Channels(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	sup := capture.NewSupervisor(capture.SupervisorOpts{
		Service:    r.metadataService(config),
		Config:     config,
		Logger:     r.logger,
		HTTPClient: r.httpClient,
	})

	channels, err := sup.ResolveChannels(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(channels, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Configured Channels")
	for _, ch := range channels {
		r.writePlain("%-24s id=%d\n", ch.Key, ch.ID)
	}
	return nil
}

// openHistory opens the capture history database and runs pending
// migrations. Returns nils when no database path is configured.
func (r *Runner) openHistory(config *shared.Config) (*repositories.CaptureRepository, func(), error) {
	if config.Database.Path == "" {
		return nil, nil, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repositories.NewCaptureRepository(db), func() { db.Close() }, nil
}
