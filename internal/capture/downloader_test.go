package capture

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
	tu "github.com/desertthunder/wavecap/internal/testing"
)

func downloadJob(t *testing.T, assetURL string) *models.CaptureJob {
	t.Helper()
	dir := t.TempDir()
	return &models.CaptureJob{
		ID:       shared.GenerateID(),
		Channel:  models.Channel{Key: "hardstyle", ID: 7, Dir: dir},
		Track:    models.TrackDescriptor{ID: 2, Artist: "Aurora", Title: "Skyline", Duration: 300, AssetURL: assetURL},
		TempPath: filepath.Join(dir, "temp.mp3"),
		Strategy: models.StrategyDownload,
	}
}

func awaitHandle(t *testing.T, h Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("download never completed")
	}
}

func TestDownloader(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Streams Asset To Temp File", func(t *testing.T) {
		payload := strings.Repeat("mp3-frame ", 20000)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("unexpected method %s", r.Method)
			}
			io.WriteString(w, payload)
		}))
		defer srv.Close()

		d := NewDownloader(srv.Client(), logger)
		job := downloadJob(t, srv.URL+"/tracks/2.mp4")

		h, err := d.Start(context.Background(), job, 30*time.Second)
		if err != nil {
			t.Fatalf("expected download to start, got %v", err)
		}
		awaitHandle(t, h)

		if err := h.Err(); err != nil {
			t.Fatalf("expected clean download, got %v", err)
		}
		if err := h.WaitFile(time.Second); err != nil {
			t.Fatalf("expected temp file, got %v", err)
		}
		if got := tu.MustReadFile(t, job.TempPath); got != payload {
			t.Errorf("temp file holds %d bytes, want %d", len(got), len(payload))
		}
		if dl, ok := h.(*downloadHandle); !ok || dl.Bytes() != int64(len(payload)) {
			t.Errorf("byte counter disagrees with payload size")
		}
	})

	t.Run("Non-2xx Response Fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		d := NewDownloader(srv.Client(), logger)
		job := downloadJob(t, srv.URL+"/tracks/2.mp4")

		h, err := d.Start(context.Background(), job, 30*time.Second)
		if err != nil {
			t.Fatalf("expected start to succeed, got %v", err)
		}
		awaitHandle(t, h)

		if !errors.Is(h.Err(), shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", h.Err())
		}
		tu.AssertFileMissing(t, job.TempPath)
	})

	t.Run("Missing Asset URL Refuses To Start", func(t *testing.T) {
		d := NewDownloader(nil, logger)
		job := downloadJob(t, "")

		if _, err := d.Start(context.Background(), job, 30*time.Second); !errors.Is(err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", err)
		}
	})

	t.Run("Terminate Cancels The Transfer", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "partial ")
			w.(http.Flusher).Flush()
			<-release
		}))
		defer srv.Close()
		defer close(release)

		d := NewDownloader(srv.Client(), logger)
		job := downloadJob(t, srv.URL+"/tracks/2.mp4")

		h, err := d.Start(context.Background(), job, 30*time.Second)
		if err != nil {
			t.Fatalf("expected start to succeed, got %v", err)
		}

		if !h.Terminate(2 * time.Second) {
			t.Error("expected download termination to be graceful")
		}
		awaitHandle(t, h)
		if h.Err() == nil {
			t.Error("expected a canceled transfer to report failure")
		}
		tu.AssertFileMissing(t, job.TempPath)
	})

	t.Run("Parent Context Cancellation Stops The Transfer", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "partial ")
			w.(http.Flusher).Flush()
			<-release
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		d := NewDownloader(srv.Client(), logger)
		job := downloadJob(t, srv.URL+"/tracks/2.mp4")

		h, err := d.Start(ctx, job, 30*time.Second)
		if err != nil {
			t.Fatalf("expected start to succeed, got %v", err)
		}
		cancel()
		awaitHandle(t, h)

		if h.Err() == nil {
			t.Error("expected a canceled transfer to report failure")
		}
	})
}
