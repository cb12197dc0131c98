package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
)

// downloadChunkSize is the copy buffer size for streaming assets to disk.
const downloadChunkSize = 64 * 1024

// Downloader is the download-based capture strategy: it streams the track's
// byte-addressable asset over HTTP into the temporary file. On success the
// file is complete and immediately publishable, with no subprocess to race.
type Downloader struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewDownloader creates a download-based capture driver.
func NewDownloader(client *http.Client, logger *log.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{httpClient: client, logger: logger}
}

func (d *Downloader) Strategy() models.CaptureStrategy {
	return models.StrategyDownload
}

// Start begins streaming the job's asset URL to its temporary file. The
// transfer is bounded by bound+margin; an overrun cancels it and fails the
// capture.
func (d *Downloader) Start(ctx context.Context, job *models.CaptureJob, bound time.Duration) (Handle, error) {
	if job.Track.AssetURL == "" {
		return nil, fmt.Errorf("%w: track %d has no asset URL", shared.ErrDownloadFailed, job.Track.ID)
	}

	dlCtx, cancel := context.WithTimeout(ctx, bound+overrunMargin)

	h := &downloadHandle{
		tempPath: job.TempPath,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go h.run(dlCtx, d.httpClient, job.Track.AssetURL, d.logger)
	return h, nil
}

// downloadHandle owns one in-flight asset transfer.
type downloadHandle struct {
	tempPath string
	cancel   context.CancelFunc
	done     chan struct{}

	mu    sync.Mutex
	err   error
	bytes int64
}

func (h *downloadHandle) run(ctx context.Context, client *http.Client, assetURL string, logger *log.Logger) {
	defer close(h.done)
	defer h.cancel()

	err := h.fetch(ctx, client, assetURL)

	h.mu.Lock()
	h.err = err
	bytes := h.bytes
	h.mu.Unlock()

	if err != nil {
		logger.Warn("download failed", "url", assetURL, "err", err)
		os.Remove(h.tempPath)
		return
	}
	logger.Debug("download complete", "bytes", bytes, "file", h.tempPath)
}

func (h *downloadHandle) fetch(ctx context.Context, client *http.Client, assetURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrDownloadFailed, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrDownloadFailed, resp.StatusCode)
	}

	out, err := os.Create(h.tempPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", shared.ErrDownloadFailed, err)
	}
	defer out.Close()

	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("%w: write: %v", shared.ErrDownloadFailed, writeErr)
			}
			h.mu.Lock()
			h.bytes += int64(n)
			h.mu.Unlock()
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: read: %v", shared.ErrDownloadFailed, readErr)
		}
	}
}

func (h *downloadHandle) Done() <-chan struct{} { return h.done }

func (h *downloadHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Bytes returns the number of bytes transferred so far.
func (h *downloadHandle) Bytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bytes
}

// Terminate cancels the transfer. Downloads stop promptly, so termination is
// always graceful.
func (h *downloadHandle) Terminate(grace time.Duration) bool {
	h.cancel()
	select {
	case <-h.done:
		return true
	case <-time.After(grace):
		return false
	}
}

func (h *downloadHandle) WaitFile(timeout time.Duration) error {
	if err := waitForFile(h.tempPath, timeout); err != nil {
		return fmt.Errorf("%w: temp file never appeared: %s", shared.ErrDownloadFailed, h.tempPath)
	}
	return nil
}
