package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/robalobadob/crossword-rooms/internal/auth"
	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/config"
	"github.com/robalobadob/crossword-rooms/internal/history"
	"github.com/robalobadob/crossword-rooms/internal/httpserver"
	"github.com/robalobadob/crossword-rooms/internal/pubsub"
	"github.com/robalobadob/crossword-rooms/internal/room"
	"github.com/robalobadob/crossword-rooms/internal/store"
)

type serveOptions struct {
	Port  string
	Store string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the rooms HTTP API until interrupted.

Rooms live in the configured store (memory, sqlite or badger) and expire
after ROOM_TTL without activity. Completed solves are kept in the SQLite
database at DB_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *rootOpts.Config
			if opts.Port != "" {
				cfg.Port = opts.Port
			}
			if opts.Store != "" {
				cfg.StoreBackend = opts.Store
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, &cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "room store: memory|sqlite|badger (overrides STORE_BACKEND)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set; owner tokens use the development secret")
	}

	cat, err := catalog.Load(cfg.PuzzleDir)
	if err != nil {
		return err
	}
	log.Info().Int("puzzles", cat.Len()).Str("dir", cfg.PuzzleDir).Msg("catalog loaded")

	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	kv, err := openKV(cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	broker := pubsub.NewBroker()
	hist := history.NewStore(db)
	rooms := room.NewService(room.Config{
		Sessions:  store.NewSessions(kv, cfg.RoomTTL),
		Catalog:   cat,
		History:   hist,
		Events:    broker,
		DailySalt: cfg.DailySalt,
	})

	srv := httpserver.New(httpserver.Options{
		Rooms:        rooms,
		Catalog:      cat,
		History:      hist,
		Signer:       auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresDays),
		Broker:       broker,
		ClientOrigin: cfg.ClientOrigin,
		DailySalt:    cfg.DailySalt,
		AnswerRate:   rate.Limit(cfg.AnswerRate),
		AnswerBurst:  cfg.AnswerBurst,
	})

	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreBackend).
		Dur("room_ttl", cfg.RoomTTL).
		Msg("starting crossword-rooms")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, cfg.Addr()) })
	g.Go(func() error { return store.RunGC(gctx, kv, cfg.GCInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openKV returns the room store selected by cfg.StoreBackend. The sqlite
// backend shares db with the solve history.
func openKV(cfg *config.Config, db *sql.DB) (store.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.NewSQLite(db), nil
	case config.BackendBadger:
		b, err := store.OpenBadger(store.BadgerConfig{Path: cfg.BadgerPath})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
