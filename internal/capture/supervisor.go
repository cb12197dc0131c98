package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/services"
	"github.com/desertthunder/wavecap/internal/shared"
)

// staggerDelay spaces out scheduler starts so N channels do not hit the
// metadata API in one burst.
const staggerDelay = 500 * time.Millisecond

// SupervisorOpts contains configuration for a multi-channel capture run.
type SupervisorOpts struct {
	Service    services.MetadataService
	Config     *shared.Config
	Clock      shared.Clock
	Logger     *log.Logger
	History    HistorySink  // optional
	Events     chan<- Event // optional
	HTTPClient *http.Client // used by the download strategy
}

// Supervisor authenticates once, resolves every configured channel, and runs
// one scheduler per channel to completion or interruption.
type Supervisor struct {
	service    services.MetadataService
	config     *shared.Config
	clock      shared.Clock
	logger     *log.Logger
	history    HistorySink
	events     chan<- Event
	httpClient *http.Client
}

// NewSupervisor creates a supervisor for the configured channel set.
func NewSupervisor(opts SupervisorOpts) *Supervisor {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Supervisor{
		service:    opts.Service,
		config:     opts.Config,
		clock:      opts.Clock,
		logger:     opts.Logger,
		history:    opts.History,
		events:     opts.Events,
		httpClient: opts.HTTPClient,
	}
}

// Run authenticates, resolves channels, and runs the schedulers until ctx is
// canceled. Only startup failures (authentication, or resolution of the sole
// configured channel) abort the run; per-channel trouble after startup stays
// inside that channel's loop.
func (s *Supervisor) Run(ctx context.Context) error {
	keys := s.config.Capture.Channels
	if len(keys) == 0 {
		return fmt.Errorf("%w: no channels configured", shared.ErrInvalidConfig)
	}

	creds := s.config.Credentials
	authenticated := false
	if creds.Username != "" || creds.Password != "" {
		if err := s.service.Authenticate(ctx, creds.Username, creds.Password); err != nil {
			return err
		}
		authenticated = true
		s.logger.Info("authenticated", "service", s.service.Name())
	} else {
		s.logger.Info("no credentials configured, downloads disabled")
	}

	schedulers := make([]*Scheduler, 0, len(keys))
	for _, key := range keys {
		sched, err := s.prepare(ctx, key, authenticated)
		if err != nil {
			if len(keys) == 1 {
				return err
			}
			s.logger.Error("channel failed to start", "channel", key, "err", err)
			continue
		}
		schedulers = append(schedulers, sched)
	}

	if len(schedulers) == 0 {
		return fmt.Errorf("%w: no channels could be started", shared.ErrChannelNotFound)
	}

	// Single channel runs inline, no concurrency overhead.
	if len(schedulers) == 1 {
		return ignoreCancellation(schedulers[0].Run(ctx))
	}

	var wg sync.WaitGroup
	for i, sched := range schedulers {
		if i > 0 {
			s.clock.Sleep(ctx, staggerDelay)
		}
		wg.Add(1)
		go func(sched *Scheduler) {
			defer wg.Done()
			sched.Run(ctx)
		}(sched)
	}
	wg.Wait()
	return nil
}

// prepare resolves one channel and builds its scheduler.
func (s *Supervisor) prepare(ctx context.Context, key string, authenticated bool) (*Scheduler, error) {
	channel, err := s.service.ResolveChannel(ctx, key)
	if err != nil {
		return nil, err
	}

	channel.Dir = filepath.Join(s.config.Capture.LibraryRoot, channel.Key)
	if err := os.MkdirAll(channel.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create channel directory: %w", err)
	}

	var downloader Driver
	if authenticated {
		downloader = NewDownloader(s.httpClient, shared.ChannelLogger(s.logger, key))
	}

	return NewScheduler(SchedulerOpts{
		Channel:    channel,
		Service:    s.service,
		Recorder:   NewRecorder(s.config.Capture.Recorder, s.config.Capture.StreamURL, shared.ChannelLogger(s.logger, key)),
		Downloader: downloader,
		Ledger:     NewLedger(channel.Dir),
		Clock:      s.clock,
		Logger:     s.logger,
		History:    s.history,
		Events:     s.events,
		UseRoutine: authenticated,
	}), nil
}

// ResolveChannels resolves every configured key without starting schedulers.
// Used by CLI commands that only need the id mapping.
func (s *Supervisor) ResolveChannels(ctx context.Context) ([]models.Channel, error) {
	channels := make([]models.Channel, 0, len(s.config.Capture.Channels))
	for _, key := range s.config.Capture.Channels {
		ch, err := s.service.ResolveChannel(ctx, key)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// ignoreCancellation maps context cancellation to a clean shutdown.
func ignoreCancellation(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
