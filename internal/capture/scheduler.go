package capture

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/services"
	"github.com/desertthunder/wavecap/internal/shared"
)

// Scheduler timing policy. The values mirror the upstream feed's behavior:
// tracks shorter than the epsilon are not worth starting, and skip waits are
// capped so an early upstream track switch is never slept through.
const (
	boundaryEpsilon  = 12.0 // seconds; a track this close to its end is "almost over"
	skipWaitGrace    = 2 * time.Second
	skipWaitCap      = 30 * time.Second
	emptyFeedDelay   = 10 * time.Second
	backoffDelay     = 10 * time.Second
	failureDelay     = 5 * time.Second
	capturePollEvery = 2 * time.Second
	terminateGrace   = 5 * time.Second
	tempFileWait     = 10 * time.Second
)

// state enumerates the scheduler's explicit states. Transitions:
//
//	polling → skipWait | capturing | backoff
//	skipWait → polling
//	capturing → publishing | skipWait
//	publishing → polling
//	backoff → polling
type state int

const (
	statePolling state = iota
	stateSkipWait
	stateCapturing
	statePublishing
	stateBackoff
)

// HistorySink records terminal capture jobs for later inspection. Recording
// is observability only; failures are logged and never affect scheduling.
type HistorySink interface {
	Record(ctx context.Context, job *models.CaptureJob) error
}

// SchedulerOpts contains the collaborators for one channel scheduler.
type SchedulerOpts struct {
	Channel    models.Channel
	Service    services.MetadataService
	Recorder   Driver
	Downloader Driver
	Ledger     *Ledger
	Clock      shared.Clock
	Logger     *log.Logger
	History    HistorySink  // optional
	Events     chan<- Event // optional, never blocked on
	TempName   string       // temporary filename within the channel dir, default "temp.mp3"
	// UseRoutine selects the download strategy when the authenticated routine
	// lists a direct asset for the current track.
	UseRoutine bool
}

// Scheduler is the per-channel control loop: poll the feed, decide, capture,
// publish, repeat. All operations for one channel are strictly sequential;
// concurrency exists only across schedulers.
type Scheduler struct {
	channel    models.Channel
	service    services.MetadataService
	recorder   Driver
	downloader Driver
	ledger     *Ledger
	clock      shared.Clock
	logger     *log.Logger
	history    HistorySink
	events     chan<- Event
	tempPath   string
	useRoutine bool
}

// NewScheduler creates a scheduler for one resolved channel.
func NewScheduler(opts SchedulerOpts) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.TempName == "" {
		opts.TempName = "temp.mp3"
	}

	return &Scheduler{
		channel:    opts.Channel,
		service:    opts.Service,
		recorder:   opts.Recorder,
		downloader: opts.Downloader,
		ledger:     opts.Ledger,
		clock:      opts.Clock,
		logger:     shared.ChannelLogger(opts.Logger, opts.Channel.Key),
		history:    opts.History,
		events:     opts.Events,
		tempPath:   filepath.Join(opts.Channel.Dir, opts.TempName),
		useRoutine: opts.UseRoutine,
	}
}

// Run executes the scheduler loop until ctx is canceled. Collaborator
// failures never escape the loop; they route through the backoff state.
func (s *Scheduler) Run(ctx context.Context) error {
	st := statePolling
	var track models.TrackDescriptor
	var job *models.CaptureJob
	var handle Handle
	var pollErr error

	for {
		if err := ctx.Err(); err != nil {
			if handle != nil {
				handle.Terminate(terminateGrace)
			}
			return err
		}

		switch st {
		case statePolling:
			s.send(pollingEvent(s.channel.Key))
			cur, err := s.service.CurrentlyPlaying(ctx, s.channel.ID)
			if err != nil {
				pollErr = err
				st = stateBackoff
				continue
			}
			if cur == nil {
				// Nothing listed for this channel right now; not an error.
				s.logger.Debug("feed has no entry, retrying", "delay", emptyFeedDelay)
				s.clock.Sleep(ctx, emptyFeedDelay)
				continue
			}

			track = *cur
			if !s.ledger.ShouldCapture(track.ID, track.Name()) {
				s.send(skippedEvent(s.channel.Key, track, "already captured"))
				st = stateSkipWait
				continue
			}
			st = stateCapturing

		case stateSkipWait:
			s.send(waitingEvent(s.channel.Key, track, track.Remaining(s.clock.Now())))
			s.clock.Sleep(ctx, s.skipWait(track))
			// Always re-poll rather than trusting the stale timer; upstream
			// track switches can come early.
			st = statePolling

		case stateCapturing:
			remaining := track.Remaining(s.clock.Now())
			if remaining < boundaryEpsilon {
				s.logger.Info("track almost over, waiting for next", "track", track.Name(), "remaining", remaining)
				st = stateSkipWait
				continue
			}

			driver, skip := s.pickDriver(ctx, &track)
			if skip {
				// Listed in the routine but with no usable asset: treat as
				// permanently skipped so the loop does not spin on it.
				s.ledger.MarkCaptured(track.ID)
				s.finishJob(ctx, s.newJob(track, models.StrategyDownload, models.JobSkipped, nil))
				s.send(skippedEvent(s.channel.Key, track, "no usable asset"))
				st = stateSkipWait
				continue
			}

			job = s.newJob(track, driver.Strategy(), models.JobInProgress, nil)
			bound := time.Duration(remaining * float64(time.Second))

			var err error
			handle, err = driver.Start(ctx, job, bound)
			if err != nil {
				job.Status = models.JobFailed
				job.Error = err
				s.finishJob(ctx, job)
				s.send(failedEvent(s.channel.Key, track, err))
				job, handle = nil, nil
				s.clock.Sleep(ctx, failureDelay)
				st = statePolling
				continue
			}

			s.logger.Info("capturing", "track", track.Name(), "strategy", job.Strategy, "remaining", remaining)
			s.send(captureStartedEvent(s.channel.Key, track, remaining))
			s.watch(ctx, handle, job)
			st = statePublishing

		case statePublishing:
			err := handle.Err()
			if err == nil {
				err = handle.WaitFile(tempFileWait)
			}
			if err == nil {
				err = s.ledger.Publish(job.TempPath, s.ledger.DestPath(job.Track.Name()))
			}

			if err != nil {
				// Discard the artifact and leave the ledger unmarked; the
				// track is retried naturally while it is still current.
				os.Remove(job.TempPath)
				job.Status = models.JobFailed
				job.Error = err
				s.finishJob(ctx, job)
				s.send(failedEvent(s.channel.Key, job.Track, err))
				s.logger.Warn("capture failed", "track", job.Track.Name(), "err", err)
				job, handle = nil, nil
				s.clock.Sleep(ctx, failureDelay)
				st = statePolling
				continue
			}

			s.ledger.MarkCaptured(job.Track.ID)
			job.Status = models.JobSucceeded
			s.finishJob(ctx, job)
			s.send(publishedEvent(s.channel.Key, job.Track, s.ledger.DestPath(job.Track.Name())))
			s.logger.Info("published", "track", job.Track.Name())
			job, handle = nil, nil
			st = statePolling

		case stateBackoff:
			s.logger.Warn("poll failed, backing off", "err", pollErr, "delay", backoffDelay)
			s.send(Event{Kind: EventBackoff, Channel: s.channel.Key, Message: pollErr.Error()})
			s.clock.Sleep(ctx, backoffDelay)
			st = statePolling
		}
	}
}

// skipWait returns how long to sleep while the current track plays out:
// remaining plus a small grace, capped so an upstream glitch that swaps
// tracks early is noticed.
func (s *Scheduler) skipWait(track models.TrackDescriptor) time.Duration {
	remaining := track.Remaining(s.clock.Now())
	wait := time.Duration(remaining*float64(time.Second)) + skipWaitGrace
	if wait > skipWaitCap {
		wait = skipWaitCap
	}
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

// pickDriver selects the capture strategy for the current track. When the
// authenticated routine lists the track with a direct asset the downloader
// wins; a listed track with no asset is reported as a permanent skip; an
// unlisted track falls back to recording.
func (s *Scheduler) pickDriver(ctx context.Context, track *models.TrackDescriptor) (driver Driver, skip bool) {
	if !s.useRoutine || s.downloader == nil {
		return s.recorder, false
	}

	routine, err := s.service.Routine(ctx, s.channel.ID)
	if err != nil {
		s.logger.Warn("routine fetch failed, falling back to recording", "err", err)
		return s.recorder, false
	}

	for _, rt := range routine {
		if rt.ID != track.ID {
			continue
		}
		if rt.AssetURL == "" {
			return nil, true
		}
		track.AssetURL = rt.AssetURL
		return s.downloader, false
	}

	// Not yet listed in the routine; normal, record it live instead.
	return s.recorder, false
}

// watch blocks until the in-flight capture completes. For the recording
// strategy it keeps polling the feed and stops the subprocess as soon as the
// upstream track changes, so the previous track stays publishable.
func (s *Scheduler) watch(ctx context.Context, h Handle, job *models.CaptureJob) {
	for {
		select {
		case <-h.Done():
			return
		case <-ctx.Done():
			h.Terminate(terminateGrace)
			return
		default:
		}

		s.clock.Sleep(ctx, capturePollEvery)

		select {
		case <-h.Done():
			return
		default:
		}

		s.send(captureProgressEvent(s.channel.Key, job.Track, job.Track.Remaining(s.clock.Now())))

		if job.Strategy != models.StrategyRecord {
			continue
		}

		cur, err := s.service.CurrentlyPlaying(ctx, s.channel.ID)
		if err != nil || cur == nil {
			continue // keep recording through transient feed trouble
		}
		if !cur.Same(job.Track) {
			s.logger.Info("track changed mid-recording, stopping", "was", job.Track.Name(), "now", cur.Name())
			h.Terminate(terminateGrace)
			return
		}
	}
}

// newJob builds a capture job owned by this scheduler.
func (s *Scheduler) newJob(track models.TrackDescriptor, strategy models.CaptureStrategy, status models.JobStatus, err error) *models.CaptureJob {
	return &models.CaptureJob{
		ID:       shared.GenerateID(),
		Channel:  s.channel,
		Track:    track,
		TempPath: s.tempPath,
		Strategy: strategy,
		Status:   status,
		Error:    err,
	}
}

// finishJob records a terminal job with the history sink, when one is wired.
func (s *Scheduler) finishJob(ctx context.Context, job *models.CaptureJob) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, job); err != nil {
		s.logger.Warn("failed to record capture history", "err", err)
	}
}

// send delivers an event without blocking. Uses select with default so slow
// or absent consumers never stall the capture loop.
func (s *Scheduler) send(ev Event) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}
