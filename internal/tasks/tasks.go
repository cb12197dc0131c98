// package tasks implements bulk operations over the captured library.
//
// The core abstraction is ExportEngine, which renders per-channel track
// listings to export files. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/desertthunder/wavecap/internal/library"
)

// ProgressUpdate is one status message emitted during a bulk operation.
type ProgressUpdate struct {
	Channel string // channel key the update concerns
	Message string // human-readable status
	Done    bool   // true on the final update for a channel
	Err     error  // non-nil when the channel's export failed
}

// ExportEngine renders channel track listings from a library store.
type ExportEngine struct {
	store *library.Store
}

// NewExportEngine creates an engine over the given store.
func NewExportEngine(store *library.Store) *ExportEngine {
	return &ExportEngine{store: store}
}
