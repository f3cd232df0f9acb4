package catalog

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"time"

	"github.com/robalobadob/crossword-rooms/internal/puzzle"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Daily returns the puzzle of the day for date. The puzzle is nil for an
// empty catalog.
//
// Every puzzle ID is scored with HMAC(salt, date + "/" + id) and the highest
// score wins. Adding a puzzle to PUZZLE_DIR therefore only changes a day's
// pick when the new puzzle wins that day; removing one only moves the days
// it had won.
func (c *Catalog) Daily(date time.Time, salt string) (Entry, *puzzle.Puzzle) {
	if len(c.ids) == 0 {
		return Entry{}, nil
	}

	day := DateKey(date)
	var best string
	var bestScore []byte
	for _, id := range c.ids {
		score := dailyScore(salt, day, id)
		if bestScore == nil || bytes.Compare(score, bestScore) > 0 {
			best, bestScore = id, score
		}
	}
	return c.entry(best), c.puzzles[best]
}

func dailyScore(salt, day, id string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(day))
	h.Write([]byte{'/'})
	h.Write([]byte(id))
	return h.Sum(nil)
}
