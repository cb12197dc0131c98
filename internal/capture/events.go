package capture

import (
	"fmt"

	"github.com/desertthunder/wavecap/internal/models"
)

// Event represents a progress update from a channel scheduler.
//
// Used to send real-time updates to the CLI or UI layer for display.
type Event struct {
	Kind      EventKind
	Channel   string  // channel key
	Track     string  // display name of the track involved, when known
	TrackID   int     // upstream id of the track involved, when known
	Remaining float64 // seconds of playback left at event time, when known
	Message   string  // human-readable message for display
}

// Scheduler event kinds
type EventKind int

const (
	EventPolling EventKind = iota
	EventSkipped
	EventWaiting
	EventCaptureStarted
	EventCaptureProgress
	EventPublished
	EventFailed
	EventBackoff
)

func (k EventKind) String() string {
	switch k {
	case EventPolling:
		return "polling"
	case EventSkipped:
		return "skipped"
	case EventWaiting:
		return "waiting"
	case EventCaptureStarted:
		return "capture_started"
	case EventCaptureProgress:
		return "capture_progress"
	case EventPublished:
		return "published"
	case EventFailed:
		return "failed"
	case EventBackoff:
		return "backoff"
	default:
		return ""
	}
}

func pollingEvent(channel string) Event {
	return Event{
		Kind:    EventPolling,
		Channel: channel,
		Message: "polling the feed",
	}
}

func waitingEvent(channel string, track models.TrackDescriptor, remaining float64) Event {
	return Event{
		Kind:      EventWaiting,
		Channel:   channel,
		Track:     track.Name(),
		TrackID:   track.ID,
		Remaining: remaining,
		Message:   "waiting for the track to end",
	}
}

func captureStartedEvent(channel string, track models.TrackDescriptor, remaining float64) Event {
	return Event{
		Kind:      EventCaptureStarted,
		Channel:   channel,
		Track:     track.Name(),
		TrackID:   track.ID,
		Remaining: remaining,
		Message:   fmt.Sprintf("Recording: %s (%.0fs remaining)", track.Name(), remaining),
	}
}

func captureProgressEvent(channel string, track models.TrackDescriptor, remaining float64) Event {
	return Event{
		Kind:      EventCaptureProgress,
		Channel:   channel,
		Track:     track.Name(),
		TrackID:   track.ID,
		Remaining: remaining,
	}
}

func publishedEvent(channel string, track models.TrackDescriptor, dest string) Event {
	return Event{
		Kind:    EventPublished,
		Channel: channel,
		Track:   track.Name(),
		TrackID: track.ID,
		Message: fmt.Sprintf("Saved: %s", dest),
	}
}

func skippedEvent(channel string, track models.TrackDescriptor, reason string) Event {
	return Event{
		Kind:    EventSkipped,
		Channel: channel,
		Track:   track.Name(),
		TrackID: track.ID,
		Message: reason,
	}
}

func failedEvent(channel string, track models.TrackDescriptor, err error) Event {
	return Event{
		Kind:    EventFailed,
		Channel: channel,
		Track:   track.Name(),
		TrackID: track.ID,
		Message: err.Error(),
	}
}
