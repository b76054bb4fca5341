// Package server is the HTTP surface of teamgraph.
//
// GET /rest/v1/question streams the answer to a question as Server-Sent
// Events. Other endpoints expose health, metrics, the graph diagrams, the
// documents written by the writing team and per-run checkpoints. Failures
// outside a stream are reported with the JSON error envelope.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallnest/teamgraph/errs"
	"github.com/smallnest/teamgraph/internal/app"
	"github.com/smallnest/teamgraph/log"
)

const runIDHeader = "X-Run-Id"

// Server serves the API of an App.
type Server struct {
	app     *app.App
	handler http.Handler
}

// New creates the server and its routes.
func New(a *app.App) *Server {
	s := &Server{app: a}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(instrument(s.app.Metrics))
	r.Use(cors(s.app.Config.Server.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errs.NotFound(fmt.Sprintf("no route for %s", r.URL.Path), errs.CodeNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &errs.Error{
			Status:  http.StatusMethodNotAllowed,
			Code:    errs.CodeNone,
			Message: fmt.Sprintf("method %s is not allowed", r.Method),
		})
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.app.Registry, promhttp.HandlerOpts{}))

	r.Route("/rest/v1", func(r chi.Router) {
		r.Get("/question", s.handleQuestion)
		r.Get("/graph", s.handleGraph)
		r.Get("/documents/{name}", s.handleDocument)
		r.Get("/runs/{id}/checkpoints", s.handleCheckpoints)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.app.Config.Server.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// streams end with the server instead of holding up Shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
