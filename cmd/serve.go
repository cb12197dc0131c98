package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/wavecap/internal/library"
	"github.com/desertthunder/wavecap/internal/server"
	"github.com/desertthunder/wavecap/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve scans the library and serves the player over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	store := library.NewStore(config.Capture.LibraryRoot, config.Server.Favorites, r.logger)
	idx, err := store.Rescan()
	if err != nil {
		return fmt.Errorf("failed to scan library: %w", err)
	}
	r.logger.Info("library scanned", "channels", len(idx.Channels()), "tracks", idx.Total())

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewLibraryHandler(store, r.logger, nil))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(fmt.Sprintf("http://%s/", addr)); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	return server.Serve(ctx, addr, router, r.logger)
}
