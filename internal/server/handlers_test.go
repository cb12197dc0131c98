package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/wavecap/internal/library"
	"github.com/desertthunder/wavecap/internal/shared"
)

func newTestServer(t *testing.T, root string, favorites []string) *httptest.Server {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	store := library.NewStore(root, favorites, logger)
	if _, err := store.Rescan(); err != nil {
		t.Fatalf("Failed to scan library: %v", err)
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(NewLibraryHandler(store, logger, rand.New(rand.NewSource(1))))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func writeMP3(t *testing.T, root, channel, name, content string) {
	t.Helper()
	dir := filepath.Join(root, channel)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create channel dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write mp3: %v", err)
	}
}

func TestLibraryHandler(t *testing.T) {
	t.Run("Player Page", func(t *testing.T) {
		srv := newTestServer(t, t.TempDir(), nil)

		resp, err := http.Get(srv.URL + "/")
		if err != nil {
			t.Fatalf("Failed to fetch player: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type = %q, want text/html", ct)
		}
		body, _ := io.ReadAll(resp.Body)
		if !bytes.Contains(body, []byte("Music Library")) {
			t.Error("player page missing expected markup")
		}
	})

	t.Run("Tracks Endpoint", func(t *testing.T) {
		root := t.TempDir()
		writeMP3(t, root, "vocaltrance", "Aurora - Skyline.mp3", "audio-bytes")
		writeMP3(t, root, "ambient", "Calm - Sea.mp3", "audio-bytes")
		writeMP3(t, root, "vocaltrance", "temp.mp3", "in progress")
		srv := newTestServer(t, root, []string{"vocaltrance"})

		resp, err := http.Get(srv.URL + "/api/tracks")
		if err != nil {
			t.Fatalf("Failed to fetch tracks: %v", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var decoded map[string][]library.Track
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Fatalf("Failed to decode tracks: %v", err)
		}
		if len(decoded["vocaltrance"]) != 1 || len(decoded["ambient"]) != 1 {
			t.Errorf("unexpected track counts: %v", decoded)
		}
		if strings.Contains(string(body), "temp.mp3") {
			t.Error("in-progress captures must never be listed")
		}
		if strings.Index(string(body), `"vocaltrance"`) > strings.Index(string(body), `"ambient"`) {
			t.Errorf("favorite channel must come first: %s", body)
		}
	})

	t.Run("Stream Pick", func(t *testing.T) {
		t.Run("Returns A Track", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "audio")
			srv := newTestServer(t, root, nil)

			resp, err := http.Get(srv.URL + "/api/stream")
			if err != nil {
				t.Fatalf("Failed to fetch stream pick: %v", err)
			}
			defer resp.Body.Close()

			var track library.Track
			if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
				t.Fatalf("Failed to decode pick: %v", err)
			}
			if track.Path != "house/A - B.mp3" {
				t.Errorf("pick = %+v, want the only track", track)
			}
		})

		t.Run("Empty Library", func(t *testing.T) {
			srv := newTestServer(t, t.TempDir(), nil)

			resp, err := http.Get(srv.URL + "/api/stream")
			if err != nil {
				t.Fatalf("Failed to fetch stream pick: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("status = %d, want 404 for an empty library", resp.StatusCode)
			}
		})
	})

	t.Run("Rate Endpoint", func(t *testing.T) {
		t.Run("Persists A Rating", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "long enough to carry an id3 tag")
			srv := newTestServer(t, root, nil)

			payload := `{"path":"house/A - B.mp3","rating":4}`
			resp, err := http.Post(srv.URL+"/api/rate", "application/json", strings.NewReader(payload))
			if err != nil {
				t.Fatalf("Failed to post rating: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			_, _, rating, err := library.ReadTags(filepath.Join(root, "house", "A - B.mp3"))
			if err != nil || rating != 4 {
				t.Errorf("rating not persisted: rating=%d err=%v", rating, err)
			}
		})

		t.Run("Rejects Invalid Ratings", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "audio")
			srv := newTestServer(t, root, nil)

			resp, err := http.Post(srv.URL+"/api/rate", "application/json", strings.NewReader(`{"path":"house/A - B.mp3","rating":9}`))
			if err != nil {
				t.Fatalf("Failed to post rating: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})

		t.Run("Rejects Traversal", func(t *testing.T) {
			srv := newTestServer(t, t.TempDir(), nil)

			resp, err := http.Post(srv.URL+"/api/rate", "application/json", strings.NewReader(`{"path":"../../etc/passwd","rating":3}`))
			if err != nil {
				t.Fatalf("Failed to post rating: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})

		t.Run("Rejects GET", func(t *testing.T) {
			srv := newTestServer(t, t.TempDir(), nil)

			resp, err := http.Get(srv.URL + "/api/rate")
			if err != nil {
				t.Fatalf("Failed to request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want 405", resp.StatusCode)
			}
		})
	})

	t.Run("Audio Serving", func(t *testing.T) {
		t.Run("Full File", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "0123456789")
			srv := newTestServer(t, root, nil)

			resp, err := http.Get(srv.URL + "/mp3/house/A%20-%20B.mp3")
			if err != nil {
				t.Fatalf("Failed to fetch audio: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
				t.Errorf("content type = %q, want audio/mpeg", ct)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != "0123456789" {
				t.Errorf("body = %q, want full contents", body)
			}
		})

		t.Run("Byte Range", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "0123456789")
			srv := newTestServer(t, root, nil)

			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/mp3/house/A%20-%20B.mp3", nil)
			req.Header.Set("Range", "bytes=2-5")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Failed to fetch range: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusPartialContent {
				t.Fatalf("status = %d, want 206", resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != "2345" {
				t.Errorf("range body = %q, want 2345", body)
			}
		})

		t.Run("Traversal Is Not Found", func(t *testing.T) {
			root := t.TempDir()
			writeMP3(t, root, "house", "A - B.mp3", "audio")
			srv := newTestServer(t, root, nil)

			resp, err := http.Get(srv.URL + "/mp3/house/%2E%2E%2F%2E%2E%2Fetc%2Fpasswd")
			if err != nil {
				t.Fatalf("Failed to request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("status = %d, want 404", resp.StatusCode)
			}
		})
	})

	t.Run("Favicon", func(t *testing.T) {
		srv := newTestServer(t, t.TempDir(), nil)

		resp, err := http.Get(srv.URL + "/favicon.ico")
		if err != nil {
			t.Fatalf("Failed to request favicon: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status = %d, want 204", resp.StatusCode)
		}
	})
}
