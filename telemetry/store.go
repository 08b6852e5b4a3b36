// Package telemetry persists per-frame tracker diagnostics to a local SQLite
// database so runs can be inspected after the fact.
package telemetry

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	// sqlite driver
	_ "modernc.org/sqlite"

	"github.com/govio/stereo/frame"
)

const schema = `
CREATE TABLE IF NOT EXISTS frame_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	frame_id INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	is_keyframe INTEGER NOT NULL,
	nr_valid INTEGER NOT NULL,
	nr_no_left_rect INTEGER NOT NULL,
	nr_no_right_rect INTEGER NOT NULL,
	nr_no_depth INTEGER NOT NULL,
	nr_failed_arun INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_frame_stats_session ON frame_stats(session_id, frame_id);
`

// Store is a SQLite-backed sink for per-frame keypoint status counts. Each
// Store instance records under its own session id so multiple runs can share
// a database file.
type Store struct {
	db        *sql.DB
	path      string
	SessionID string
}

// New opens (creating if needed) the database at dbPath and prepares the
// schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Wrap(err, closeErr.Error())
		}
		return nil, errors.Wrap(err, "failed to set journal mode")
	}
	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Wrap(err, closeErr.Error())
		}
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return &Store{
		db:        db,
		path:      dbPath,
		SessionID: uuid.NewString(),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FrameStats is one recorded diagnostics row.
type FrameStats struct {
	FrameID    uint64
	Timestamp  int64
	IsKeyframe bool
	Counts     frame.StatusCounts
}

// RecordFrame inserts the status breakdown of one stereo frame under the
// store's session.
func (s *Store) RecordFrame(frameID uint64, timestamp int64, isKeyframe bool, counts frame.StatusCounts) error {
	_, err := s.db.Exec(
		`INSERT INTO frame_stats
			(session_id, frame_id, timestamp, is_keyframe,
			 nr_valid, nr_no_left_rect, nr_no_right_rect, nr_no_depth, nr_failed_arun)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, int64(frameID), timestamp, isKeyframe,
		counts.Valid, counts.NoLeftRect, counts.NoRightRect, counts.NoDepth, counts.FailedArun,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record stats for frame %d", frameID)
	}
	return nil
}

// SessionStats returns all rows recorded under the store's session, in frame
// order.
func (s *Store) SessionStats() ([]FrameStats, error) {
	rows, err := s.db.Query(
		`SELECT frame_id, timestamp, is_keyframe,
			nr_valid, nr_no_left_rect, nr_no_right_rect, nr_no_depth, nr_failed_arun
		 FROM frame_stats WHERE session_id = ? ORDER BY frame_id`,
		s.SessionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query frame stats")
	}
	defer utils.UncheckedErrorFunc(rows.Close)

	var stats []FrameStats
	for rows.Next() {
		var fs FrameStats
		if err := rows.Scan(
			&fs.FrameID, &fs.Timestamp, &fs.IsKeyframe,
			&fs.Counts.Valid, &fs.Counts.NoLeftRect, &fs.Counts.NoRightRect,
			&fs.Counts.NoDepth, &fs.Counts.FailedArun,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan frame stats row")
		}
		stats = append(stats, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading frame stats rows")
	}
	return stats, nil
}
