package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/wavecap/internal/formatter"
	"github.com/desertthunder/wavecap/internal/shared"
)

// BulkExportOpts contains configuration for bulk channel exports.
type BulkExportOpts struct {
	Format     string   // Export format: json, csv, markdown, txt
	OutputDir  string   // Base output directory (default: library_export_{epoch})
	NumWorkers int      // Concurrent workers (default: 4)
	Channels   []string // Channel keys to export (default: every channel in the index)
}

// ChannelExportResult is the outcome of exporting one channel.
type ChannelExportResult struct {
	Channel string `json:"channel"`
	File    string `json:"file,omitempty"`
	Tracks  int    `json:"tracks"`
	Error   string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalChannels   int                   `json:"total_channels"`
	Succeeded       int                   `json:"succeeded"`
	Failed          int                   `json:"failed"`
	OutputDirectory string                `json:"output_directory"`
	Results         []ChannelExportResult `json:"results"`
	ManifestPath    string                `json:"-"`
}

// BulkExport exports channel track listings concurrently.
//
// Each channel renders to one file in the output directory. Partial failures
// are collected rather than aborting the run, and a manifest file summarizing
// the results is written last.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	idx := e.store.Index()

	keys := opts.Channels
	if len(keys) == 0 {
		keys = idx.Channels()
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: library has no channels", shared.ErrInvalidInput)
	}

	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("library_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > len(keys) {
		opts.NumWorkers = len(keys)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalChannels:   len(keys),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ChannelExportResult, 0, len(keys)),
	}

	jobs := make(chan string, len(keys))
	results := make(chan ChannelExportResult, len(keys))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	for _, key := range keys {
		jobs <- key
	}
	close(jobs)

	wg.Wait()
	close(results)

	for res := range results {
		if res.Error != "" {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, res)

		if prog != nil {
			update := ProgressUpdate{Channel: res.Channel, Done: true}
			if res.Error != "" {
				update.Err = fmt.Errorf("%s", res.Error)
				update.Message = fmt.Sprintf("export failed: %s", res.Error)
			} else {
				update.Message = fmt.Sprintf("exported %d tracks to %s", res.Tracks, res.File)
			}
			prog <- update
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports channels from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan string,
	results chan<- ChannelExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for key := range jobs {
		select {
		case <-ctx.Done():
			results <- ChannelExportResult{Channel: key, Error: ctx.Err().Error()}
			continue
		default:
		}

		results <- e.exportChannel(key, opts)
	}
}

// exportChannel renders one channel's track listing to a file.
func (e *ExportEngine) exportChannel(key string, opts BulkExportOpts) ChannelExportResult {
	tracks := e.store.Index().Tracks(key)
	if len(tracks) == 0 {
		return ChannelExportResult{Channel: key, Error: "channel has no tracks"}
	}

	export := &formatter.ChannelExport{Channel: key, Tracks: tracks}
	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", key, formatter.Extension(opts.Format)))

	if err := formatter.WriteExport(export, opts.Format, path); err != nil {
		return ChannelExportResult{Channel: key, Tracks: len(tracks), Error: err.Error()}
	}

	return ChannelExportResult{Channel: key, File: path, Tracks: len(tracks)}
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
