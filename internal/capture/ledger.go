package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/wavecap/internal/shared"
)

// forbiddenFilenameChars are stripped from destination names.
const forbiddenFilenameChars = `<>:"/\|?*`

// Sanitize strips filesystem-hostile characters from a track name.
// Distinct tracks that sanitize to the same name overwrite each other;
// that collision is accepted rather than resolved.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenFilenameChars, r) {
			return -1
		}
		return r
	}, name)
}

// Ledger is the per-channel dedup and publish gate. The in-memory captured
// set lives for the run only; across restarts "already have it" is re-derived
// from the destination filenames, which stay the source of truth.
type Ledger struct {
	dir string

	mu       sync.Mutex
	captured map[int]bool
}

// NewLedger creates a ledger publishing into the channel directory dir.
func NewLedger(dir string) *Ledger {
	return &Ledger{dir: dir, captured: make(map[int]bool)}
}

// DestPath returns the sanitized destination path for a track name.
func (l *Ledger) DestPath(name string) string {
	return filepath.Join(l.dir, Sanitize(name)+".mp3")
}

// ShouldCapture reports whether a track still needs capturing: false when the
// id was already captured this run or a file already occupies the sanitized
// destination path.
func (l *Ledger) ShouldCapture(trackID int, name string) bool {
	l.mu.Lock()
	already := l.captured[trackID]
	l.mu.Unlock()
	if already {
		return false
	}

	if _, err := os.Stat(l.DestPath(name)); err == nil {
		return false
	}
	return true
}

// MarkCaptured records a track id as captured for the rest of the run.
// Idempotent; ids are never removed.
func (l *Ledger) MarkCaptured(trackID int) {
	l.mu.Lock()
	l.captured[trackID] = true
	l.mu.Unlock()
}

// Captured reports whether a track id is in the run's captured set.
func (l *Ledger) Captured(trackID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.captured[trackID]
}

// Publish atomically moves a finished temporary file to its destination.
// The rename stays within one filesystem, so readers of the destination
// directory observe either absence or the complete file. A missing temp file
// fails with ErrPublishFailed and leaves the captured set untouched.
func (l *Ledger) Publish(tempPath, destPath string) error {
	if _, err := os.Stat(tempPath); err != nil {
		return fmt.Errorf("%w: temp file not found: %s", shared.ErrPublishFailed, tempPath)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPublishFailed, err)
	}
	return nil
}
