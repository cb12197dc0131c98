package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/wavecap/internal/models"
	"github.com/desertthunder/wavecap/internal/shared"
)

// CaptureRepository persists terminal capture jobs. It satisfies the capture
// package's history sink.
type CaptureRepository struct {
	db *sql.DB
}

// NewCaptureRepository creates a new [CaptureRepository] with the given database connection
func NewCaptureRepository(db *sql.DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Record inserts one terminal capture job into the history table.
func (r *CaptureRepository) Record(ctx context.Context, job *models.CaptureJob) error {
	sequence, err := NextSequence(r.db, "captures")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := job.ID
	if id == "" {
		id = shared.GenerateID()
	}

	errText := ""
	if job.Error != nil {
		errText = job.Error.Error()
	}

	query := `
		INSERT INTO captures (id, sequence, channel_key, track_id, artist, title, strategy, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id, sequence, job.Channel.Key, job.Track.ID,
		job.Track.Artist, job.Track.Title,
		string(job.Strategy), string(job.Status), errText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}

	return nil
}

// Recent returns the most recent capture records across all channels,
// newest first.
func (r *CaptureRepository) Recent(ctx context.Context, limit int) ([]models.CaptureRecord, error) {
	query := `
		SELECT id, sequence, channel_key, track_id, artist, title, strategy, status, error, created_at
		FROM captures
		ORDER BY sequence DESC
		LIMIT ?
	`
	return r.query(ctx, query, limit)
}

// ByChannel returns the most recent capture records for one channel,
// newest first.
func (r *CaptureRepository) ByChannel(ctx context.Context, channelKey string, limit int) ([]models.CaptureRecord, error) {
	query := `
		SELECT id, sequence, channel_key, track_id, artist, title, strategy, status, error, created_at
		FROM captures
		WHERE channel_key = ?
		ORDER BY sequence DESC
		LIMIT ?
	`
	return r.query(ctx, query, channelKey, limit)
}

// CountByStatus returns how many recorded captures hold each status.
func (r *CaptureRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM captures GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count captures: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.JobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *CaptureRepository) query(ctx context.Context, query string, args ...any) ([]models.CaptureRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var records []models.CaptureRecord
	for rows.Next() {
		var rec models.CaptureRecord
		var strategy, status string
		err := rows.Scan(&rec.ID, &rec.Sequence, &rec.ChannelKey, &rec.TrackID,
			&rec.Artist, &rec.Title, &strategy, &status, &rec.Error, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		rec.Strategy = models.CaptureStrategy(strategy)
		rec.Status = models.JobStatus(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}
