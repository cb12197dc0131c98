// AudioAddict implementation of [MetadataService]
//
// Response types based on the public api.audioaddict.com/v1 feed.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.audioaddict.com/v1/di"

// aaChannel represents one entry of the upstream channel list.
type aaChannel struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// aaTrack represents the track object of the currently_playing feed.
type aaTrack struct {
	ID            int     `json:"id"`
	DisplayArtist string  `json:"display_artist"`
	DisplayTitle  string  `json:"display_title"`
	StartTime     string  `json:"start_time"`
	Duration      float64 `json:"duration"`
}

// aaNowPlaying pairs a channel id with its current track.
type aaNowPlaying struct {
	ChannelID int     `json:"channel_id"`
	Track     aaTrack `json:"track"`
}

type aaAsset struct {
	URL string `json:"url"`
}

type aaContent struct {
	Assets []aaAsset `json:"assets"`
}

// aaRoutineTrack is a playlist entry carrying downloadable assets.
type aaRoutineTrack struct {
	ID            int       `json:"id"`
	DisplayArtist string    `json:"display_artist"`
	DisplayTitle  string    `json:"display_title"`
	Duration      float64   `json:"duration"`
	Content       aaContent `json:"content"`
}

type aaRoutine struct {
	Tracks []aaRoutineTrack `json:"tracks"`
}

type aaAuthResponse struct {
	APIKey string `json:"api_key"`
}

// AudioAddictService implements [MetadataService] against the AudioAddict
// family of radio APIs. The API key obtained by Authenticate is process-wide
// state: written once at startup, read-only afterwards.
//
// A single shared [rate.Limiter] bounds outbound requests across every
// channel scheduler polling through this client.
type AudioAddictService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu     sync.RWMutex
	apiKey string
}

// AudioAddictOpts contains construction options for [AudioAddictService].
type AudioAddictOpts struct {
	BaseURL           string
	Timeout           time.Duration // per-request timeout, defaults to 10s
	RequestsPerSecond float64       // shared outbound budget, defaults to 2
	HTTPClient        *http.Client
}

// NewAudioAddictService creates a new AudioAddict metadata client.
func NewAudioAddictService(opts AudioAddictOpts) *AudioAddictService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &AudioAddictService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

func (s *AudioAddictService) Name() string {
	return "AudioAddict"
}

// doGet performs a rate-limited GET and decodes the JSON response into result.
func (s *AudioAddictService) doGet(ctx context.Context, endpoint string, authed bool, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}

	apiURL := s.baseURL + endpoint
	if authed {
		key := s.APIKey()
		if key == "" {
			return shared.ErrNotAuthenticated
		}
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		apiURL += sep + "api_key=" + url.QueryEscape(key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Authenticate performs member authentication and stores the returned API key.
func (s *AudioAddictService) Authenticate(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return shared.ErrMissingCredentials
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/members/authenticate", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var auth aaAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAuthFailed, err)
	}
	if auth.APIKey == "" {
		return fmt.Errorf("%w: response carried no api key", shared.ErrAuthFailed)
	}

	s.mu.Lock()
	s.apiKey = auth.APIKey
	s.mu.Unlock()
	return nil
}

// APIKey returns the stored member API key, empty until Authenticate succeeds.
func (s *AudioAddictService) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// ResolveChannel resolves a channel key against the upstream channel list.
func (s *AudioAddictService) ResolveChannel(ctx context.Context, key string) (models.Channel, error) {
	var channels []aaChannel
	if err := s.doGet(ctx, "/channels", false, &channels); err != nil {
		return models.Channel{}, err
	}

	for _, ch := range channels {
		if ch.Key == key {
			return models.Channel{Key: ch.Key, ID: ch.ID}, nil
		}
	}

	return models.Channel{}, fmt.Errorf("%w: %s", shared.ErrChannelNotFound, key)
}

// CurrentlyPlaying fetches the current descriptor for one channel.
//
// The feed lists every station at once; a missing entry for the channel is a
// normal transient condition reported as (nil, nil).
func (s *AudioAddictService) CurrentlyPlaying(ctx context.Context, channelID int) (*models.TrackDescriptor, error) {
	var playing []aaNowPlaying
	if err := s.doGet(ctx, "/currently_playing", false, &playing); err != nil {
		return nil, err
	}

	for _, np := range playing {
		if np.ChannelID != channelID {
			continue
		}

		start, err := time.Parse(time.RFC3339, np.Track.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start_time %q: %v", shared.ErrUpstreamUnavailable, np.Track.StartTime, err)
		}

		return &models.TrackDescriptor{
			ID:        np.Track.ID,
			Artist:    np.Track.DisplayArtist,
			Title:     np.Track.DisplayTitle,
			StartTime: start,
			Duration:  np.Track.Duration,
		}, nil
	}

	return nil, nil
}

// Routine fetches the channel playlist and resolves each entry's first asset URL.
func (s *AudioAddictService) Routine(ctx context.Context, channelID int) ([]models.TrackDescriptor, error) {
	var routine aaRoutine
	endpoint := fmt.Sprintf("/routine/%d", channelID)
	if err := s.doGet(ctx, endpoint, true, &routine); err != nil {
		return nil, err
	}

	tracks := make([]models.TrackDescriptor, 0, len(routine.Tracks))
	for _, rt := range routine.Tracks {
		track := models.TrackDescriptor{
			ID:       rt.ID,
			Artist:   rt.DisplayArtist,
			Title:    rt.DisplayTitle,
			Duration: rt.Duration,
		}
		if len(rt.Content.Assets) > 0 {
			track.AssetURL = NormalizeAssetURL(rt.Content.Assets[0].URL)
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// NormalizeAssetURL upgrades scheme-relative asset URLs to https.
func NormalizeAssetURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}
