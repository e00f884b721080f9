// Package server exposes a grid over HTTP. Each client gets its own grid
// session, identified by the X-Grid-Session header; all sessions share the
// loaded rows and, when configured, the persisted view state.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/source"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger is satisfied by *db.DB and *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Table *source.Table
	// Grid is the template for every session. Columns and Rows are taken
	// from Table.
	Grid       grid.Options[source.Record]
	SessionTTL time.Duration
	// MaxSessions caps live sessions; DefaultMaxSessions when zero.
	MaxSessions int
	// Database, when set, is checked by the health endpoint.
	Database Pinger
	Logger   zerolog.Logger
}

// Server serves grid sessions over one table.
type Server struct {
	ctx      context.Context
	opts     Options
	columns  []grid.Column[source.Record]
	sessions *sessionTable
	log      zerolog.Logger
}

// New builds a server. ctx bounds persistence I/O of every session.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Table == nil {
		return nil, util.ErrNoSource
	}
	columns := opts.Table.Columns()
	if err := grid.ValidateColumns(columns); err != nil {
		return nil, err
	}
	return &Server{
		ctx:      ctx,
		opts:     opts,
		columns:  columns,
		sessions: newSessionTable(opts.SessionTTL, opts.MaxSessions),
		log:      opts.Logger.With().Str("component", "server").Logger(),
	}, nil
}

// Handler returns the HTTP handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(s.log))
	mux.Use(Recovery(s.log))
	mux.Use(metrics.HTTP)

	mux.Route("/v1", func(r chi.Router) {
		r.Get("/grid", s.getGrid)
		r.Post("/grid/actions", s.postAction)
		r.Get("/grid/facets/{column}", s.getFacets)
		r.Get("/grid/export.{format}", s.getExport)
		r.Get("/health", s.getHealth)
	})
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// session returns the caller's session, creating one when the header is
// absent or names an expired session. The id is echoed in the response.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	if id := r.Header.Get(SessionHeader); util.ValidateULID(id) {
		if sess := s.sessions.get(id); sess != nil {
			w.Header().Set(SessionHeader, id)
			return sess, nil
		}
		if created, err := util.ParseULID(id); err == nil {
			s.log.Debug().Str("session", util.ShortID(id)).Dur("age", time.Since(created)).Msg("session expired")
		}
	}

	opts := s.opts.Grid
	opts.Columns = s.columns
	opts.Rows = s.opts.Table.Records
	if opts.Title == "" {
		opts.Title = s.opts.Table.Name
	}
	log := s.log
	opts.Logger = &log

	g, err := grid.New(s.ctx, opts)
	if err != nil {
		return nil, err
	}
	sess := &session{id: util.NewULID(), grid: g}
	if evicted := s.sessions.put(sess); evicted != "" {
		s.log.Warn().Str("session", util.ShortID(evicted)).Msg("session limit reached, evicted oldest")
	}
	s.log.Debug().Str("session", util.ShortID(sess.id)).Msg("session created")

	w.Header().Set(SessionHeader, sess.id)
	return sess, nil
}
