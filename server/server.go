// Package server exposes the valstore REST surface over net/http.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/valstore/valstore/catalog"
	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/summary"
)

// UserHeader carries the caller identity, set by the fronting proxy.
const UserHeader = "X-Valstore-User"

// Authorizer decides whether a user may act on a project.
type Authorizer interface {
	Authorize(ctx context.Context, user, projectID string) error
}

// AllowAll authorizes every request. The default when no authorizer is
// wired in deployment config.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, string, string) error { return nil }

// Server routes HTTP requests onto the catalog and summary services.
type Server struct {
	catalog   *catalog.Service
	summaries *summary.Service
	authz     Authorizer
	validate  *validator.Validate
	logger    *zap.SugaredLogger

	mux  *http.ServeMux
	http *http.Server
}

// New creates a server over the given services. A nil authorizer allows
// everything.
func New(cat *catalog.Service, sum *summary.Service, authz Authorizer, logger *zap.SugaredLogger) *Server {
	if authz == nil {
		authz = AllowAll{}
	}
	s := &Server{
		catalog:   cat,
		summaries: sum,
		authz:     authz,
		validate:  validator.New(),
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler with middleware applied, for tests
// and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Infow("HTTP server listening", "addr", addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return errors.Wrap(err, "http server failed")
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Infow("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}

// authorize checks the request identity against the project scope.
func (s *Server) authorize(r *http.Request, projectID string) error {
	user := r.Header.Get(UserHeader)
	if err := s.authz.Authorize(r.Context(), user, projectID); err != nil {
		if errors.IsPermissionDenied(err) {
			return err
		}
		return errors.Wrap(errors.ErrPermissionDenied, err.Error())
	}
	return nil
}
