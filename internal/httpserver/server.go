// internal/httpserver/server.go
//
// HTTP server for crossword rooms.
// Responsibilities:
//   - Build the chi router and install middleware (request ID, real IP,
//     panic recovery, request logging/metrics, CORS, JSON content type).
//   - Register the room, puzzle and history routes.
//   - Expose /health and Prometheus /metrics.
//
// Notes:
//   - Every route except the event stream runs under a 10s handler
//     timeout. The event stream lives as long as the client stays connected.
//   - Error bodies are always {"error": "..."}.
//   - Shutdown closes the event broker so open streams end promptly.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/crossword-rooms/internal/auth"
	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/history"
	"github.com/robalobadob/crossword-rooms/internal/pubsub"
	"github.com/robalobadob/crossword-rooms/internal/room"
)

const handlerTimeout = 10 * time.Second

// Leaderboard reads the fastest solves of a puzzle.
type Leaderboard interface {
	Leaderboard(ctx context.Context, puzzleID string, limit int) ([]history.Solve, error)
}

// Options wires a Server.
type Options struct {
	Rooms        *room.Service
	Catalog      *catalog.Catalog
	History      Leaderboard // optional
	Signer       *auth.Signer
	Broker       *pubsub.Broker
	ClientOrigin string
	DailySalt    string
	AnswerRate   rate.Limit // answers per second per client
	AnswerBurst  int
	Now          func() time.Time // defaults to time.Now
}

// Server bundles the router and the services behind it.
type Server struct {
	r         *chi.Mux
	rooms     *room.Service
	catalog   *catalog.Catalog
	history   Leaderboard
	signer    *auth.Signer
	broker    *pubsub.Broker
	limiter   *clientLimiter
	validate  *validator.Validate
	dailySalt string
	now       func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		r:         chi.NewRouter(),
		rooms:     opts.Rooms,
		catalog:   opts.Catalog,
		history:   opts.History,
		signer:    opts.Signer,
		broker:    opts.Broker,
		limiter:   newClientLimiter(opts.AnswerRate, opts.AnswerBurst),
		validate:  validator.New(),
		dailySalt: opts.DailySalt,
		now:       now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(requestLogger)           // zerolog line + latency histogram
	s.r.Use(jsonContentType)         // default JSON responses
	s.r.Use(cors(opts.ClientOrigin)) // single-origin CORS

	// --- diagnostics ---
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", promhttp.Handler())

	s.r.Route("/api", func(r chi.Router) {
		s.mountRooms(r)
		s.mountPuzzles(r.With(chimw.Timeout(handlerTimeout)))
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return s
}

// Handler exposes the router (used by http.Server and tests).
func (s *Server) Handler() http.Handler { return s.r }

// Run serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. Shutdown closes the event broker so
// open event streams end instead of holding the server up.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.broker != nil {
		srv.RegisterOnShutdown(s.broker.Close)
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
