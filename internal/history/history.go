// internal/history/history.go
//
// Solve history: one row per completed room, used for the per-puzzle
// leaderboard. Backed by the solves table created by store.Migrate.
package history

import (
	"context"
	"database/sql"
	"time"
)

// Solve is a completed solve.
type Solve struct {
	Room        string    `json:"room"`
	PuzzleID    string    `json:"puzzleId"`
	ElapsedSecs int64     `json:"elapsedSecs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Recorder is the write side used by the room service.
type Recorder interface {
	Record(ctx context.Context, s Solve) error
}

// Store reads and writes the solves table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts a solve. CreatedAt defaults to the database clock when
// zero.
func (s *Store) Record(ctx context.Context, r Solve) error {
	if r.CreatedAt.IsZero() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO solves(room, puzzle_id, elapsed_secs) VALUES(?,?,?)`,
			r.Room, r.PuzzleID, r.ElapsedSecs,
		)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO solves(room, puzzle_id, elapsed_secs, created_at) VALUES(?,?,?,?)`,
		r.Room, r.PuzzleID, r.ElapsedSecs, r.CreatedAt.UTC(),
	)
	return err
}

// Leaderboard returns the fastest solves of a puzzle. Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, puzzleID string, limit int) ([]Solve, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT room, puzzle_id, elapsed_secs, created_at
        FROM solves
        WHERE puzzle_id=?
        ORDER BY elapsed_secs ASC, created_at ASC, id ASC
        LIMIT ?`, puzzleID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Solve, 0, limit)
	for rows.Next() {
		var r Solve
		if err := rows.Scan(&r.Room, &r.PuzzleID, &r.ElapsedSecs, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
