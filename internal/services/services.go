// package services defines interface MetadataService for the upstream
// "now playing" HTTP API
package services

import (
	"context"

	"github.com/desertthunder/wavecap/internal/models"
)

// MetadataService defines the interface for the remote radio metadata feed:
// channel directory, currently-playing descriptors, and the authenticated
// routine (playlist) that carries direct asset URLs.
type MetadataService interface {
	// Authenticate performs member authentication and stores the returned
	// API key for subsequent routine calls. Returns shared.ErrAuthFailed on
	// bad credentials or shared.ErrMissingCredentials when either field is empty.
	Authenticate(ctx context.Context, username, password string) error

	// ResolveChannel resolves a channel key to its numeric upstream id.
	// Returns shared.ErrChannelNotFound when the key is absent from the
	// channel list and shared.ErrUpstreamUnavailable on a non-success response.
	ResolveChannel(ctx context.Context, key string) (models.Channel, error)

	// CurrentlyPlaying fetches the descriptor for the track now playing on
	// the channel. A nil descriptor with nil error means the feed currently
	// has no entry for the channel, which is a normal transient condition.
	CurrentlyPlaying(ctx context.Context, channelID int) (*models.TrackDescriptor, error)

	// Routine fetches the channel's playlist with direct asset URLs.
	// Requires a prior Authenticate call.
	Routine(ctx context.Context, channelID int) ([]models.TrackDescriptor, error)

	// Name returns the name of the service (e.g., "AudioAddict")
	Name() string
}
