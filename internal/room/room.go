// internal/room/room.go
//
// Room service: named, shared crossword solves.
// Responsibilities:
//   - Run each session engine operation on the stored snapshot under a
//     per-room lock so concurrent requests never lose updates.
//   - Keep per-room settings and metadata (puzzle ID, owner passphrase).
//   - Publish state/settings/complete/show_clue events, always with the
//     puzzle's solution stripped.
//   - Record completed solves in the history store.
//
// Side effects after a successful store (publish, history) are best effort:
// failures are logged and never fail the operation.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword-rooms/internal/answer"
	"github.com/robalobadob/crossword-rooms/internal/auth"
	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/history"
	"github.com/robalobadob/crossword-rooms/internal/metrics"
	"github.com/robalobadob/crossword-rooms/internal/pubsub"
	"github.com/robalobadob/crossword-rooms/internal/session"
	"github.com/robalobadob/crossword-rooms/internal/snapshot"
	"github.com/robalobadob/crossword-rooms/internal/store"
)

var (
	// ErrInvalidName means the room name is empty, too long, or has
	// characters outside [A-Za-z0-9_-].
	ErrInvalidName = errors.New("invalid room name")

	// ErrNotPlaying means answers are only accepted while the timer runs.
	ErrNotPlaying = errors.New("puzzle is not being played")

	// ErrNoPuzzle means a create request named neither a puzzle nor daily.
	ErrNoPuzzle = errors.New("no puzzle selected")

	// ErrWrongPassphrase is returned by Authenticate.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrNoOwner means the room has no passphrase, so there is nothing to
	// authenticate against.
	ErrNoOwner = errors.New("room has no owner")
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidName reports whether name can be used as a room name.
func ValidName(name string) bool { return nameRe.MatchString(name) }

// Publisher delivers events to a room's subscribers.
type Publisher interface {
	Publish(room string, e pubsub.Event)
}

// Meta is stored alongside a room's snapshot.
type Meta struct {
	PuzzleID  string    `json:"puzzle_id"`
	CreatedAt time.Time `json:"created_at"`
	OwnerHash []byte    `json:"owner_hash,omitempty"`
}

// View is a room as shown to clients: the snapshot with the solution
// stripped, plus what clients need to render the timer.
type View struct {
	Room        string         `json:"room"`
	PuzzleID    string         `json:"puzzle_id"`
	Owned       bool           `json:"owned"`
	ElapsedSecs int64          `json:"elapsed_secs"`
	State       snapshot.State `json:"state"`
}

// CreateRequest selects the puzzle for a room.
type CreateRequest struct {
	PuzzleID   string `json:"puzzle_id" validate:"omitempty,max=128"`
	Daily      bool   `json:"daily"`
	Passphrase string `json:"passphrase" validate:"omitempty,min=4,max=100"`
}

// Config wires a Service.
type Config struct {
	Sessions  *store.Sessions
	Catalog   *catalog.Catalog
	History   history.Recorder // optional
	Events    Publisher        // optional
	DailySalt string
	Now       func() time.Time // defaults to time.Now
}

// Service runs room operations.
type Service struct {
	sessions  *store.Sessions
	catalog   *catalog.Catalog
	history   history.Recorder
	events    Publisher
	dailySalt string
	now       func() time.Time
	locks     keyedMutex
}

func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		sessions:  cfg.Sessions,
		catalog:   cfg.Catalog,
		history:   cfg.History,
		events:    cfg.Events,
		dailySalt: cfg.DailySalt,
		now:       now,
	}
}

// Create starts a fresh solve of the requested puzzle in room, replacing any
// solve in progress. Settings survive; the owner passphrase survives unless
// a new one is given.
//
// Callers guard owned rooms with the owner token. An unowned room has no such
// guard, so anyone may replace its solve and claim it by passing a passphrase.
func (s *Service) Create(ctx context.Context, room string, req CreateRequest) (View, error) {
	if !ValidName(room) {
		return View{}, ErrInvalidName
	}

	var puzzleID string
	switch {
	case req.PuzzleID != "":
		puzzleID = req.PuzzleID
	case req.Daily:
		e, p := s.catalog.Daily(s.now(), s.dailySalt)
		if p == nil {
			return View{}, ErrNoPuzzle
		}
		puzzleID = e.ID
	default:
		return View{}, ErrNoPuzzle
	}
	p, err := s.catalog.Get(puzzleID)
	if err != nil {
		return View{}, err
	}

	unlock := s.locks.Lock(room)
	defer unlock()

	var meta Meta
	if err := s.sessions.LoadMeta(ctx, room, &meta); err != nil && !errors.Is(err, store.ErrNotFound) {
		return View{}, err
	}
	meta.PuzzleID = puzzleID
	meta.CreatedAt = s.now().UTC()
	if req.Passphrase != "" {
		if err := auth.ValidatePassphrase(req.Passphrase); err != nil {
			return View{}, err
		}
		hash, err := auth.HashPassphrase(req.Passphrase)
		if err != nil {
			return View{}, fmt.Errorf("hash passphrase: %w", err)
		}
		meta.OwnerHash = hash
	}

	settings, err := s.loadSettings(ctx, room)
	if err != nil {
		return View{}, err
	}

	st := session.New(p)
	if err := s.sessions.Save(ctx, room, st); err != nil {
		return View{}, fmt.Errorf("save room %s: %w", room, err)
	}
	if err := s.sessions.SaveMeta(ctx, room, meta); err != nil {
		return View{}, fmt.Errorf("save meta %s: %w", room, err)
	}
	if err := s.sessions.SaveSettings(ctx, room, settings); err != nil {
		return View{}, fmt.Errorf("save settings %s: %w", room, err)
	}

	log.Info().Str("room", room).Str("puzzle", puzzleID).Bool("owned", meta.OwnerHash != nil).Msg("room created")
	metrics.RoomOpsTotal.WithLabelValues("create", "ok").Inc()

	v := s.view(room, meta, st)
	s.publish(room, pubsub.KindSettings, settings)
	s.publish(room, pubsub.KindState, v)
	return v, nil
}

// Get returns the room's current view.
func (s *Service) Get(ctx context.Context, room string) (View, error) {
	st, meta, err := s.load(ctx, room)
	if err != nil {
		return View{}, err
	}
	return s.view(room, meta, st), nil
}

// Names lists active rooms.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	return s.sessions.Names(ctx)
}

// Delete removes the room. Subscribers get a deleted event.
func (s *Service) Delete(ctx context.Context, room string) error {
	unlock := s.locks.Lock(room)
	defer unlock()

	if _, _, err := s.load(ctx, room); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, room); err != nil {
		return fmt.Errorf("delete room %s: %w", room, err)
	}

	log.Info().Str("room", room).Msg("room deleted")
	metrics.RoomOpsTotal.WithLabelValues("delete", "ok").Inc()
	s.publish(room, pubsub.KindDeleted, map[string]string{"room": room})
	return nil
}

// Toggle starts, pauses or resumes the room's timer.
func (s *Service) Toggle(ctx context.Context, room string) (View, error) {
	return s.update(ctx, "toggle", room, func(st session.State, _ Settings) (session.State, error) {
		return session.TogglePlayPause(st, s.now())
	})
}

// Answer applies answerText to clue. Answers are only accepted while
// playing; rooms that only allow correct answers reject wrong ones.
func (s *Service) Answer(ctx context.Context, room, clue, answerText string) (View, error) {
	v, err := s.update(ctx, "answer", room, func(st session.State, settings Settings) (session.State, error) {
		if st.Status != session.StatusPlaying {
			return st, ErrNotPlaying
		}
		if settings.OnlyAllowCorrectAnswers {
			if err := session.CheckAnswer(st, clue, answerText, settings.AllowClearing); err != nil {
				return st, err
			}
		}
		return session.ApplyAnswer(st, clue, answerText, settings.AllowClearing, s.now())
	})
	metrics.AnswersTotal.WithLabelValues(answerResult(err)).Inc()
	return v, err
}

// Settings returns the room's settings.
func (s *Service) Settings(ctx context.Context, room string) (Settings, error) {
	if _, _, err := s.load(ctx, room); err != nil {
		return Settings{}, err
	}
	return s.loadSettings(ctx, room)
}

// UpdateSetting sets one named setting from its JSON value. Turning on
// only_allow_correct_answers during a solve clears every incorrect cell.
func (s *Service) UpdateSetting(ctx context.Context, room, name string, raw json.RawMessage) (Settings, error) {
	unlock := s.locks.Lock(room)
	defer unlock()

	st, meta, err := s.load(ctx, room)
	if err != nil {
		return Settings{}, err
	}
	settings, err := s.loadSettings(ctx, room)
	if err != nil {
		return Settings{}, err
	}
	if err := settings.Apply(name, raw); err != nil {
		return Settings{}, err
	}
	if err := s.sessions.SaveSettings(ctx, room, settings); err != nil {
		return Settings{}, fmt.Errorf("save settings %s: %w", room, err)
	}

	var cleared *session.State
	if name == SettingOnlyAllowCorrectAnswers && settings.OnlyAllowCorrectAnswers &&
		(st.Status == session.StatusPlaying || st.Status == session.StatusPaused) {
		next, err := session.ClearIncorrectCells(st)
		if err != nil {
			return Settings{}, err
		}
		if err := s.sessions.Save(ctx, room, next); err != nil {
			return Settings{}, fmt.Errorf("save room %s: %w", room, err)
		}
		cleared = &next
	}

	log.Info().Str("room", room).Str("setting", name).RawJSON("value", raw).Msg("setting updated")
	metrics.RoomOpsTotal.WithLabelValues("setting", "ok").Inc()

	s.publish(room, pubsub.KindSettings, settings)
	if cleared != nil {
		s.publish(room, pubsub.KindState, s.view(room, meta, *cleared))
	}
	return settings, nil
}

// CorrectAnswer reveals the solution of one clue.
func (s *Service) CorrectAnswer(ctx context.Context, room, clue string) (string, error) {
	st, _, err := s.load(ctx, room)
	if err != nil {
		return "", err
	}
	return session.CorrectAnswer(st.Puzzle, clue)
}

// ShowClue asks clients to highlight clue. The clue is normalized to
// "<number><a|d>" before publishing.
func (s *Service) ShowClue(ctx context.Context, room, clue string) (string, error) {
	st, _, err := s.load(ctx, room)
	if err != nil {
		return "", err
	}
	num, dir, err := answer.ParseClue(clue)
	if err != nil {
		return "", err
	}
	if _, ok := st.Puzzle.AnswerCells(num, dir); !ok {
		return "", fmt.Errorf("%w: %d%s", session.ErrUnknownClue, num, dir)
	}

	ref := fmt.Sprintf("%d%s", num, dir)
	s.publish(room, pubsub.KindShowClue, ref)
	return ref, nil
}

// HasOwner reports whether the room was created with a passphrase.
func (s *Service) HasOwner(ctx context.Context, room string) (bool, error) {
	var meta Meta
	if err := s.sessions.LoadMeta(ctx, room, &meta); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(meta.OwnerHash) > 0, nil
}

// Authenticate checks passphrase against the room's owner hash.
func (s *Service) Authenticate(ctx context.Context, room, passphrase string) error {
	var meta Meta
	if err := s.sessions.LoadMeta(ctx, room, &meta); err != nil {
		return err
	}
	if len(meta.OwnerHash) == 0 {
		return ErrNoOwner
	}
	if !auth.CheckPassphrase(meta.OwnerHash, passphrase) {
		return ErrWrongPassphrase
	}
	return nil
}

// InitialEvents returns the events a new subscriber needs: current settings
// and state.
func (s *Service) InitialEvents(ctx context.Context, room string) ([]pubsub.Event, error) {
	v, err := s.Get(ctx, room)
	if err != nil {
		return nil, err
	}
	settings, err := s.loadSettings(ctx, room)
	if err != nil {
		return nil, err
	}

	se, err := pubsub.NewEvent(pubsub.KindSettings, settings)
	if err != nil {
		return nil, err
	}
	ve, err := pubsub.NewEvent(pubsub.KindState, v)
	if err != nil {
		return nil, err
	}
	return []pubsub.Event{se, ve}, nil
}

// update runs fn on the room's snapshot under the room lock and stores the
// result. When fn completes the solve, a complete event is published and
// the solve is recorded.
func (s *Service) update(ctx context.Context, op, room string, fn func(session.State, Settings) (session.State, error)) (View, error) {
	unlock := s.locks.Lock(room)
	defer unlock()

	st, meta, err := s.load(ctx, room)
	if err != nil {
		return View{}, err
	}
	settings, err := s.loadSettings(ctx, room)
	if err != nil {
		return View{}, err
	}

	next, err := fn(st, settings)
	if err != nil {
		metrics.RoomOpsTotal.WithLabelValues(op, "rejected").Inc()
		if errors.Is(err, session.ErrCorruptState) {
			log.Error().Err(err).Str("room", room).Str("op", op).Msg("corrupt room state")
		}
		return View{}, err
	}
	if err := s.sessions.Save(ctx, room, next); err != nil {
		metrics.RoomOpsTotal.WithLabelValues(op, "error").Inc()
		return View{}, fmt.Errorf("save room %s: %w", room, err)
	}
	metrics.RoomOpsTotal.WithLabelValues(op, "ok").Inc()

	v := s.view(room, meta, next)
	s.publish(room, pubsub.KindState, v)

	if st.Status != session.StatusComplete && next.Status == session.StatusComplete {
		s.completed(ctx, room, meta, next)
	}
	return v, nil
}

func (s *Service) completed(ctx context.Context, room string, meta Meta, st session.State) {
	log.Info().Str("room", room).Str("puzzle", meta.PuzzleID).Int64("elapsed_secs", st.TotalElapsedSeconds).Msg("puzzle complete")
	metrics.SolvesTotal.Inc()
	metrics.SolveSeconds.Observe(float64(st.TotalElapsedSeconds))

	s.publish(room, pubsub.KindComplete, map[string]int64{"elapsed_secs": st.TotalElapsedSeconds})

	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, history.Solve{
		Room:        room,
		PuzzleID:    meta.PuzzleID,
		ElapsedSecs: st.TotalElapsedSeconds,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("room", room).Msg("record solve failed")
	}
}

func (s *Service) load(ctx context.Context, room string) (session.State, Meta, error) {
	if !ValidName(room) {
		return session.State{}, Meta{}, ErrInvalidName
	}
	st, err := s.sessions.Load(ctx, room)
	if err != nil {
		return session.State{}, Meta{}, err
	}
	var meta Meta
	if err := s.sessions.LoadMeta(ctx, room, &meta); err != nil && !errors.Is(err, store.ErrNotFound) {
		return session.State{}, Meta{}, err
	}
	return st, meta, nil
}

func (s *Service) loadSettings(ctx context.Context, room string) (Settings, error) {
	settings := DefaultSettings()
	if err := s.sessions.LoadSettings(ctx, room, &settings); err != nil && !errors.Is(err, store.ErrNotFound) {
		return Settings{}, err
	}
	return settings, nil
}

func (s *Service) view(room string, meta Meta, st session.State) View {
	stripped := st
	stripped.Puzzle = st.Puzzle.WithoutSolution()
	return View{
		Room:        room,
		PuzzleID:    meta.PuzzleID,
		Owned:       len(meta.OwnerHash) > 0,
		ElapsedSecs: int64(st.Elapsed(s.now()) / time.Second),
		State:       snapshot.FromState(stripped),
	}
}

func (s *Service) publish(room, kind string, data any) {
	if s.events == nil {
		return
	}
	e, err := pubsub.NewEvent(kind, data)
	if err != nil {
		log.Warn().Err(err).Str("room", room).Msg("publish failed")
		return
	}
	s.events.Publish(room, e)
}

func answerResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrNotPlaying):
		return "not_playing"
	case errors.Is(err, session.ErrComplete):
		return "complete"
	case errors.Is(err, session.ErrIncorrectAnswer):
		return "incorrect"
	case errors.Is(err, answer.ErrMalformedClue),
		errors.Is(err, session.ErrUnknownClue),
		errors.Is(err, session.ErrLengthMismatch):
		return "invalid"
	}
	return "error"
}
