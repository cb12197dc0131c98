// package models defines the data model for the wavecap capture engine
package models

import (
	"fmt"
	"time"
)

// Channel is one logical radio station. The numeric ID is resolved once
// against the upstream channel list and cached for the life of the process.
type Channel struct {
	Key string // upstream channel key, e.g. "hardstyle"
	ID  int    // upstream numeric id
	Dir string // destination directory for published tracks
}

// TrackDescriptor is a metadata snapshot of the currently playing track.
//
// Descriptors are produced fresh on every poll and never mutated; a track
// change is observed as a new descriptor with a different ID.
type TrackDescriptor struct {
	ID        int       // upstream catalog id, the dedup key
	Artist    string    // display artist
	Title     string    // display title
	StartTime time.Time // absolute start, timezone-aware
	Duration  float64   // seconds
	AssetURL  string    // direct download URL when the routine lists the track
}

// Name returns the display name used for destination filenames.
func (t TrackDescriptor) Name() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Elapsed returns seconds of playback between the track's start and now.
func (t TrackDescriptor) Elapsed(now time.Time) float64 {
	return now.Sub(t.StartTime).Seconds()
}

// Remaining returns seconds of playback left at now.
//
// Upstream and local clocks are not reconciled, so values slightly below
// zero occur near track boundaries and callers must tolerate them.
func (t TrackDescriptor) Remaining(now time.Time) float64 {
	return t.Duration - t.Elapsed(now)
}

// EndTime returns the absolute time the track is expected to end.
func (t TrackDescriptor) EndTime() time.Time {
	return t.StartTime.Add(time.Duration(t.Duration * float64(time.Second)))
}

// Same reports whether other describes the same upstream track.
func (t TrackDescriptor) Same(other TrackDescriptor) bool {
	return t.ID == other.ID
}

// CaptureStrategy selects how a track is captured.
type CaptureStrategy string

const (
	// StrategyRecord spawns a recording subprocess against the live transport.
	StrategyRecord CaptureStrategy = "record"

	// StrategyDownload streams a byte-addressable asset over HTTP.
	StrategyDownload CaptureStrategy = "download"
)

// JobStatus represents the lifecycle state of a capture job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobSucceeded  JobStatus = "succeeded"
	JobFailed     JobStatus = "failed"
	JobSkipped    JobStatus = "skipped"
)

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is a final one.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobSkipped
}

// CaptureJob tracks one capture attempt for one track on one channel.
// A job is owned exclusively by the scheduler that created it and is
// discarded once terminal; at most one job per channel is in progress.
type CaptureJob struct {
	ID       string
	Channel  Channel
	Track    TrackDescriptor
	TempPath string
	Strategy CaptureStrategy
	Status   JobStatus
	Error    error
}

// CaptureRecord is one persisted capture history row.
type CaptureRecord struct {
	ID         string
	Sequence   int
	ChannelKey string
	TrackID    int
	Artist     string
	Title      string
	Strategy   CaptureStrategy
	Status     JobStatus
	Error      string
	CreatedAt  time.Time
}
