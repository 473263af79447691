// Package httpapi exposes the authentication service over HTTP as a small
// JSON API: registration, login, and a token-guarded profile read.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	logger  logging.Logger
	users   *services.UserService
}

func NewServer(address string, logger logging.Logger, users *services.UserService) *Server {
	return &Server{
		address: address,
		logger:  logger.With("module", "http_server"),
		users:   users,
	}
}

// Router builds the route table with the middleware chain applied. It is
// exposed separately from Run so tests can drive it through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoveryMiddleware(s.logger))

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Get("/me", s.handleMe)
	r.Get("/ping", s.handlePing)

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
