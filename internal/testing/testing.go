// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/wavecap/internal/models"
)

// MockMetadataService is a scriptable test double for [services.MetadataService].
//
// Each fetch of the current descriptor pops the next entry from Playing;
// the final entry repeats once the script runs out.
type MockMetadataService struct {
	mu sync.Mutex

	Channels  []models.Channel
	Playing   []*models.TrackDescriptor // script of poll results
	PollErrs  []error                   // parallel to Playing; nil entries mean success
	RoutineFn func(channelID int) ([]models.TrackDescriptor, error)
	AuthErr   error

	Polls         int
	Authenticated bool
}

func (m *MockMetadataService) Authenticate(ctx context.Context, username, password string) error {
	if m.AuthErr != nil {
		return m.AuthErr
	}
	m.Authenticated = true
	return nil
}

func (m *MockMetadataService) ResolveChannel(ctx context.Context, key string) (models.Channel, error) {
	for _, ch := range m.Channels {
		if ch.Key == key {
			return ch, nil
		}
	}
	return models.Channel{}, errors.New("channel not found: " + key)
}

func (m *MockMetadataService) CurrentlyPlaying(ctx context.Context, channelID int) (*models.TrackDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.Polls
	m.Polls++
	if idx >= len(m.Playing) {
		idx = len(m.Playing) - 1
	}
	if idx < 0 {
		return nil, nil
	}
	if idx < len(m.PollErrs) && m.PollErrs[idx] != nil {
		return nil, m.PollErrs[idx]
	}
	return m.Playing[idx], nil
}

// PollCount reports how many times the current descriptor was fetched.
func (m *MockMetadataService) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Polls
}

func (m *MockMetadataService) Routine(ctx context.Context, channelID int) ([]models.TrackDescriptor, error) {
	if m.RoutineFn == nil {
		return nil, nil
	}
	return m.RoutineFn(channelID)
}

func (m *MockMetadataService) Name() string { return "mock" }

// MockClock is a manual [shared.Clock] whose sleeps advance simulated time
// instantly. Sleep durations are recorded for assertions.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	Sleeps []time.Duration
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Sleep(ctx context.Context, d time.Duration) {
	if ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.Sleeps = append(c.Sleeps, d)
	c.mu.Unlock()
}

// CountSleeps reports how many recorded sleeps equal d.
func (c *MockClock) CountSleeps(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.Sleeps {
		if s == d {
			n++
		}
	}
	return n
}

// Advance moves simulated time forward without recording a sleep.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
