// package library maintains an in-memory index of the captured mp3 tree.
//
// A scan produces an immutable Index snapshot; the Store swaps snapshots in
// as single pointer assignments, so readers never observe a half-rebuilt
// index. Rating changes write the ID3 tag on disk first and then swap in an
// updated snapshot.
package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavecap/internal/shared"
)

// tempFileName is the per-channel in-progress capture artifact; it is never
// indexed or served.
const tempFileName = "temp.mp3"

// Track is one indexed mp3 file.
type Track struct {
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Rating   int    `json:"rating"`
	Path     string `json:"path"` // "<channel>/<file>.mp3", relative to the library root
	Category string `json:"category"`
}

// Index is an immutable snapshot of the library tree. Channel order is
// favorites first, then the remaining channels alphabetically.
type Index struct {
	channels []string
	tracks   map[string][]Track
}

// Channels returns the snapshot's channel keys in display order.
func (i *Index) Channels() []string {
	return i.channels
}

// Tracks returns the snapshot's tracks for one channel.
func (i *Index) Tracks(channel string) []Track {
	return i.tracks[channel]
}

// Total returns the number of indexed tracks.
func (i *Index) Total() int {
	n := 0
	for _, ts := range i.tracks {
		n += len(ts)
	}
	return n
}

// Find looks a track up by its root-relative path.
func (i *Index) Find(path string) (Track, bool) {
	for _, ts := range i.tracks {
		for _, t := range ts {
			if t.Path == path {
				return t, true
			}
		}
	}
	return Track{}, false
}

// MarshalJSON renders the index as {channel: [track, ...]} preserving the
// favorites-first channel order, which a plain map would lose.
func (i *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, ch := range i.channels {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		tracks, err := json.Marshal(i.tracks[ch])
		if err != nil {
			return nil, err
		}
		buf.Write(tracks)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// withRating returns a copy of the snapshot with one track's rating changed.
func (i *Index) withRating(path string, rating int) *Index {
	next := &Index{channels: i.channels, tracks: make(map[string][]Track, len(i.tracks))}
	for ch, ts := range i.tracks {
		copied := append([]Track(nil), ts...)
		for n := range copied {
			if copied[n].Path == path {
				copied[n].Rating = rating
			}
		}
		next.tracks[ch] = copied
	}
	return next
}

// Store owns the current library snapshot.
type Store struct {
	root      string
	favorites []string
	logger    *log.Logger

	mu  sync.Mutex // serializes snapshot swaps, not reads
	idx atomic.Pointer[Index]
}

// NewStore creates a store rooted at the capture library directory. The
// store starts empty; call Rescan to populate it.
func NewStore(root string, favorites []string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	s := &Store{root: root, favorites: favorites, logger: logger}
	s.idx.Store(&Index{tracks: make(map[string][]Track)})
	return s
}

// Index returns the current snapshot.
func (s *Store) Index() *Index {
	return s.idx.Load()
}

// Root returns the library root directory.
func (s *Store) Root() string {
	return s.root
}

// Rescan walks the library tree, builds a fresh snapshot and swaps it in.
func (s *Store) Rescan() (*Index, error) {
	idx, err := s.scan()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.idx.Store(idx)
	s.mu.Unlock()

	s.logger.Debug("library scanned", "channels", len(idx.channels), "tracks", idx.Total())
	return idx, nil
}

func (s *Store) scan() (*Index, error) {
	idx := &Index{tracks: make(map[string][]Track)}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("%w: reading library root: %v", shared.ErrInvalidInput, err)
	}

	var channels []string
	for _, entry := range entries {
		if entry.IsDir() {
			channels = append(channels, entry.Name())
		}
	}

	for _, ch := range orderChannels(channels, s.favorites) {
		tracks := s.scanChannel(ch)
		if len(tracks) == 0 {
			continue
		}
		idx.channels = append(idx.channels, ch)
		idx.tracks[ch] = tracks
	}
	return idx, nil
}

func (s *Store) scanChannel(channel string) []Track {
	entries, err := os.ReadDir(filepath.Join(s.root, channel))
	if err != nil {
		s.logger.Warn("skipping unreadable channel directory", "channel", channel, "err", err)
		return nil
	}

	var tracks []Track
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == tempFileName || !strings.HasSuffix(name, ".mp3") {
			continue
		}

		artist, title, rating, err := ReadTags(filepath.Join(s.root, channel, name))
		if err != nil || (artist == "" && title == "") {
			artist, title = splitTrackName(name)
		}
		if title == "" {
			title = strings.TrimSuffix(name, ".mp3")
		}

		tracks = append(tracks, Track{
			Artist:   artist,
			Title:    title,
			Rating:   rating,
			Path:     channel + "/" + name,
			Category: channel,
		})
	}

	sort.Slice(tracks, func(a, b int) bool { return tracks[a].Path < tracks[b].Path })
	return tracks
}

// Rate validates a root-relative track path, writes the rating to its ID3
// tag and swaps in an updated snapshot.
func (s *Store) Rate(path string, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("%w: rating must be 0-5, got %d", shared.ErrInvalidInput, rating)
	}

	full, err := s.Resolve(path)
	if err != nil {
		return err
	}

	if err := SetRating(full, rating); err != nil {
		return err
	}

	s.mu.Lock()
	s.idx.Store(s.idx.Load().withRating(path, rating))
	s.mu.Unlock()
	return nil
}

// Resolve maps a root-relative track path to an absolute filesystem path,
// rejecting traversal outside the library root and missing files.
func (s *Store) Resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: invalid track path: %s", shared.ErrInvalidInput, path)
	}

	full := filepath.Join(s.root, clean)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: no such track: %s", shared.ErrInvalidInput, path)
	}
	return full, nil
}

// orderChannels sorts favorites first, keeping their configured order, then
// the remaining channels alphabetically.
func orderChannels(channels, favorites []string) []string {
	sort.Strings(channels)

	present := make(map[string]bool, len(channels))
	for _, ch := range channels {
		present[ch] = true
	}

	var ordered []string
	taken := make(map[string]bool, len(favorites))
	for _, fav := range favorites {
		if present[fav] && !taken[fav] {
			ordered = append(ordered, fav)
			taken[fav] = true
		}
	}
	for _, ch := range channels {
		if !taken[ch] {
			ordered = append(ordered, ch)
		}
	}
	return ordered
}

// splitTrackName parses "Artist - Title.mp3" filenames.
func splitTrackName(filename string) (artist, title string) {
	stem := strings.TrimSuffix(filename, ".mp3")
	parts := strings.SplitN(stem, " - ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", stem
}
