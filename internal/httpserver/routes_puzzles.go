// internal/httpserver/routes_puzzles.go
//
// Read-only catalog routes:
//   - GET /api/puzzles            → every puzzle in the catalog (no grids)
//   - GET /api/puzzles/daily      → puzzle of the day (or ?date=YYYY-MM-DD)
//   - GET /api/history/{puzzle}   → fastest solves of a puzzle (?limit=N)
package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/history"
)

func (s *Server) mountPuzzles(r chi.Router) {
	r.Get("/puzzles", s.handleListPuzzles)
	r.Get("/puzzles/daily", s.handleDaily)
	r.Get("/history/{puzzle}", s.handleHistory)
}

type puzzlesRes struct {
	Puzzles []catalog.Entry `json:"puzzles"`
}

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, puzzlesRes{Puzzles: s.catalog.List()})
}

type dailyRes struct {
	Date   string        `json:"date"`
	Puzzle catalog.Entry `json:"puzzle"`
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := s.now()
	if q := r.URL.Query().Get("date"); q != "" {
		t, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad date")
			return
		}
		date = t
	}

	e, p := s.catalog.Daily(date, s.dailySalt)
	if p == nil {
		writeError(w, http.StatusNotFound, "no puzzles")
		return
	}
	writeJSON(w, http.StatusOK, dailyRes{Date: catalog.DateKey(date), Puzzle: e})
}

type historyRes struct {
	PuzzleID string          `json:"puzzleId"`
	Items    []history.Solve `json:"items"`
}

// handleHistory returns the leaderboard of one puzzle. Default limit is 20,
// capped at 100.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "puzzle")
	if _, err := s.catalog.Get(id); err != nil {
		s.fail(w, r, err)
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = min(n, 100)
	}

	items := []history.Solve{}
	if s.history != nil {
		solves, err := s.history.Leaderboard(r.Context(), id, limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if solves != nil {
			items = solves
		}
	}
	writeJSON(w, http.StatusOK, historyRes{PuzzleID: id, Items: items})
}
