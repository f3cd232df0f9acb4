// internal/httpserver/routes_rooms.go
//
// HTTP routes for shared rooms, all under /api/rooms:
//   - GET    /                      → active room names
//   - PUT    /{room}                → select a puzzle (fresh solve)
//   - GET    /{room}                → current state, solution stripped
//   - DELETE /{room}                → remove the room (owner)
//   - POST   /{room}/token          → exchange passphrase for owner token
//   - PUT    /{room}/status         → toggle play/pause
//   - PUT    /{room}/answer/{clue}  → enter an answer (rate limited)
//   - GET    /{room}/answer/{clue}  → reveal the correct answer (owner)
//   - GET    /{room}/settings       → room settings
//   - PUT    /{room}/setting/{name} → change one setting (owner)
//   - GET    /{room}/show/{clue}    → ask clients to highlight a clue
//   - GET    /{room}/events         → SSE stream of room events
//
// Rooms created with a passphrase are "owned": owner routes need
// "Authorization: Bearer <token>" from /token. Rooms without one are open.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword-rooms/internal/answer"
	"github.com/robalobadob/crossword-rooms/internal/auth"
	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/room"
	"github.com/robalobadob/crossword-rooms/internal/session"
	"github.com/robalobadob/crossword-rooms/internal/store"
)

// maxBodyBytes bounds answer, setting and create payloads.
const maxBodyBytes = 1024

// mountRooms registers all /rooms routes.
func (s *Server) mountRooms(r chi.Router) {
	timeout := chimw.Timeout(handlerTimeout)

	r.With(timeout).Get("/rooms", s.handleListRooms)
	r.Route("/rooms/{room}", func(r chi.Router) {
		// Event streams must not be cut off by the handler timeout.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", s.handleGetRoom)
			r.With(s.requireOwner).Put("/", s.handleCreateRoom)
			r.With(s.requireOwner).Delete("/", s.handleDeleteRoom)
			r.Post("/token", s.handleToken)
			r.Put("/status", s.handleToggle)
			r.With(s.rateLimited).Put("/answer/{clue}", s.handleAnswer)
			r.With(s.requireOwner).Get("/answer/{clue}", s.handleCorrectAnswer)
			r.Get("/settings", s.handleSettings)
			r.With(s.requireOwner).Put("/setting/{name}", s.handleUpdateSetting)
			r.Get("/show/{clue}", s.handleShowClue)
		})
	})
}

type roomsRes struct {
	Rooms []string `json:"rooms"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	names, err := s.rooms.Names(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, roomsRes{Rooms: names})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	v, err := s.rooms.Get(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// createRes is the new room plus, when a passphrase was set, an owner token.
type createRes struct {
	room.View
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// handleCreateRoom starts a fresh solve. Replacing the puzzle of an owned
// room needs the owner token (requireOwner).
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req room.CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := chi.URLParam(r, "room")
	v, err := s.rooms.Create(r.Context(), name, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res := createRes{View: v}
	if req.Passphrase != "" {
		token, exp, err := s.signer.Sign(name)
		if err != nil {
			log.Error().Err(err).Str("room", name).Msg("sign owner token")
			writeError(w, http.StatusInternalServerError, "sign_failed")
			return
		}
		res.Token, res.ExpiresAt = token, &exp
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.Delete(r.Context(), chi.URLParam(r, "room")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenReq struct {
	Passphrase string `json:"passphrase" validate:"required,max=100"`
}

type tokenRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := chi.URLParam(r, "room")
	if err := s.rooms.Authenticate(r.Context(), name, req.Passphrase); err != nil {
		s.fail(w, r, err)
		return
	}
	token, exp, err := s.signer.Sign(name)
	if err != nil {
		log.Error().Err(err).Str("room", name).Msg("sign owner token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenRes{Token: token, ExpiresAt: exp})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	v, err := s.rooms.Toggle(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleAnswer reads the answer as a JSON string body, e.g. "C.(AT)".
// Bodies that are not valid UTF-8 are rejected before encoding/json would
// turn the bad bytes into U+FFFD.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !utf8.Valid(raw) {
		writeError(w, http.StatusBadRequest, "invalid answer")
		return
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		writeError(w, http.StatusBadRequest, "invalid answer")
		return
	}

	v, err := s.rooms.Answer(r.Context(), chi.URLParam(r, "room"), chi.URLParam(r, "clue"), text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type correctAnswerRes struct {
	Clue   string `json:"clue"`
	Answer string `json:"answer"`
}

func (s *Server) handleCorrectAnswer(w http.ResponseWriter, r *http.Request) {
	clue := chi.URLParam(r, "clue")
	text, err := s.rooms.CorrectAnswer(r.Context(), chi.URLParam(r, "room"), clue)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, correctAnswerRes{Clue: clue, Answer: text})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.rooms.Settings(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSetting takes the new value as the raw JSON body, e.g. true
// or "across".
func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	settings, err := s.rooms.UpdateSetting(r.Context(), chi.URLParam(r, "room"), chi.URLParam(r, "name"), raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type showClueRes struct {
	Clue string `json:"clue"`
}

func (s *Server) handleShowClue(w http.ResponseWriter, r *http.Request) {
	ref, err := s.rooms.ShowClue(r.Context(), chi.URLParam(r, "room"), chi.URLParam(r, "clue"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, showClueRes{Clue: ref})
}

// handleEvents streams the room's events. The first two frames are the
// current settings and state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	initial, err := s.rooms.InitialEvents(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log.Debug().Str("room", name).Str("remote", r.RemoteAddr).Msg("event stream opened")
	s.broker.ServeSSE(w, r, name, initial...)
	log.Debug().Str("room", name).Str("remote", r.RemoteAddr).Msg("event stream closed")
}

// fail maps service errors to HTTP responses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, code, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, answer.ErrMalformedClue), errors.Is(err, session.ErrUnknownClue):
		return http.StatusBadRequest, "no such clue"
	case errors.Is(err, session.ErrLengthMismatch), errors.Is(err, session.ErrIncorrectAnswer):
		return http.StatusBadRequest, "invalid answer"
	case errors.Is(err, room.ErrInvalidName),
		errors.Is(err, room.ErrNoPuzzle),
		errors.Is(err, room.ErrUnknownSetting),
		errors.Is(err, room.ErrInvalidSetting),
		errors.Is(err, auth.ErrBadPassphrase):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, room.ErrWrongPassphrase):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, catalog.ErrUnknownPuzzle):
		return http.StatusNotFound, "unknown puzzle"
	case errors.Is(err, room.ErrNotPlaying):
		return http.StatusConflict, "puzzle is not being played"
	case errors.Is(err, session.ErrComplete):
		return http.StatusConflict, "puzzle is complete"
	case errors.Is(err, room.ErrNoOwner):
		return http.StatusConflict, "room has no owner"
	case errors.Is(err, session.ErrCorruptState):
		return http.StatusInternalServerError, "corrupt room state"
	}
	return http.StatusInternalServerError, "internal_error"
}
