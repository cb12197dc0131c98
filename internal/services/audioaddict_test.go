package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/wavecap/internal/shared"
)

func newTestService(baseURL string) *AudioAddictService {
	return NewAudioAddictService(AudioAddictOpts{
		BaseURL:           baseURL,
		RequestsPerSecond: 1000, // keep the limiter out of the way
	})
}

func TestAudioAddictService(t *testing.T) {
	t.Run("ResolveChannel", func(t *testing.T) {
		t.Run("Known Key", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/channels" {
					t.Errorf("expected path '/channels', got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"id":5,"key":"trance","name":"Trance"},{"id":13,"key":"hardstyle","name":"Hardstyle"}]`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			ch, err := srv.ResolveChannel(context.Background(), "hardstyle")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ch.ID != 13 {
				t.Errorf("expected channel id 13, got %d", ch.ID)
			}
			if ch.Key != "hardstyle" {
				t.Errorf("expected channel key 'hardstyle', got %s", ch.Key)
			}
		})

		t.Run("Unknown Key", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"id":5,"key":"trance","name":"Trance"}]`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			_, err := srv.ResolveChannel(context.Background(), "polka")

			if !errors.Is(err, shared.ErrChannelNotFound) {
				t.Errorf("expected ErrChannelNotFound, got %v", err)
			}
		})

		t.Run("Non-Success Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			_, err := srv.ResolveChannel(context.Background(), "trance")

			if !errors.Is(err, shared.ErrUpstreamUnavailable) {
				t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
			}
		})
	})

	t.Run("CurrentlyPlaying", func(t *testing.T) {
		t.Run("Channel Present In Feed", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[
					{"channel_id":5,"track":{"id":100,"display_artist":"A","display_title":"B","start_time":"2025-03-14T12:00:00Z","duration":180.5}},
					{"channel_id":13,"track":{"id":200,"display_artist":"Headhunterz","display_title":"Dragonborn","start_time":"2025-03-14T12:01:30+00:00","duration":321}}
				]`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			track, err := srv.CurrentlyPlaying(context.Background(), 13)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track == nil {
				t.Fatal("expected a descriptor, got nil")
			}
			if track.ID != 200 {
				t.Errorf("expected track id 200, got %d", track.ID)
			}
			if track.Duration != 321 {
				t.Errorf("expected duration 321, got %v", track.Duration)
			}
			want := time.Date(2025, 3, 14, 12, 1, 30, 0, time.UTC)
			if !track.StartTime.Equal(want) {
				t.Errorf("expected start %v, got %v", want, track.StartTime)
			}
		})

		t.Run("Channel Absent From Feed", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"channel_id":5,"track":{"id":100,"display_artist":"A","display_title":"B","start_time":"2025-03-14T12:00:00Z","duration":180}}]`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			track, err := srv.CurrentlyPlaying(context.Background(), 99)

			if err != nil {
				t.Fatalf("expected no error for absent channel, got %v", err)
			}
			if track != nil {
				t.Errorf("expected nil descriptor for absent channel, got %+v", track)
			}
		})

		t.Run("Malformed Start Time", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"channel_id":5,"track":{"id":100,"start_time":"not a time","duration":180}}]`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			_, err := srv.CurrentlyPlaying(context.Background(), 5)

			if err == nil {
				t.Error("expected error for malformed start_time")
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("Valid Credentials", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.URL.Path != "/members/authenticate" {
					t.Errorf("expected path '/members/authenticate', got %s", r.URL.Path)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse form: %v", err)
				}
				if r.PostForm.Get("username") != "listener" {
					t.Errorf("expected username 'listener', got %s", r.PostForm.Get("username"))
				}
				w.Write([]byte(`{"api_key":"k-123"}`))
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			err := srv.Authenticate(context.Background(), "listener", "hunter2")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.APIKey() != "k-123" {
				t.Errorf("expected stored api key 'k-123', got %s", srv.APIKey())
			}
		})

		t.Run("Bad Credentials", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			err := srv.Authenticate(context.Background(), "listener", "wrong")

			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			srv := newTestService("http://example.invalid")
			err := srv.Authenticate(context.Background(), "", "")

			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Routine", func(t *testing.T) {
		t.Run("Requires Authentication", func(t *testing.T) {
			srv := newTestService("http://example.invalid")
			_, err := srv.Routine(context.Background(), 13)

			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Resolves First Asset URL", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/members/authenticate":
					w.Write([]byte(`{"api_key":"k-123"}`))
				case "/routine/13":
					if r.URL.Query().Get("api_key") != "k-123" {
						t.Errorf("expected api_key query param, got %q", r.URL.Query().Get("api_key"))
					}
					w.Write([]byte(`{"tracks":[
						{"id":1,"display_artist":"A","display_title":"B","duration":200,"content":{"assets":[{"url":"//cdn.example.com/a.mp3"}]}},
						{"id":2,"display_artist":"C","display_title":"D","duration":300,"content":{"assets":[]}}
					]}`))
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer server.Close()

			srv := newTestService(server.URL)
			if err := srv.Authenticate(context.Background(), "u", "p"); err != nil {
				t.Fatalf("authenticate failed: %v", err)
			}

			tracks, err := srv.Routine(context.Background(), 13)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
			if tracks[0].AssetURL != "https://cdn.example.com/a.mp3" {
				t.Errorf("expected normalized https URL, got %s", tracks[0].AssetURL)
			}
			if tracks[1].AssetURL != "" {
				t.Errorf("expected empty asset URL for assetless track, got %s", tracks[1].AssetURL)
			}
		})
	})

	t.Run("NormalizeAssetURL", func(t *testing.T) {
		cases := map[string]string{
			"//cdn.example.com/x.mp3":       "https://cdn.example.com/x.mp3",
			"https://cdn.example.com/x.mp3": "https://cdn.example.com/x.mp3",
			"http://cdn.example.com/x.mp3":  "http://cdn.example.com/x.mp3",
		}
		for in, want := range cases {
			if got := NormalizeAssetURL(in); got != want {
				t.Errorf("NormalizeAssetURL(%q) = %q, want %q", in, got, want)
			}
		}
	})
}
