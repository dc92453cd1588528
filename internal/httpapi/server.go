// Package httpapi exposes authentication, claims and progress over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goliatone/go-claimform/internal/auth"
	"github.com/goliatone/go-claimform/internal/claims"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "claimform_session"

const maxBodyBytes = 1 << 20

// Mux is the minimal interface required to register handlers. It is
// satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Server holds the services behind the API.
type Server struct {
	auth          *auth.Service
	claims        *claims.Service
	templates     *template.Registry
	progress      *progress.Evaluator
	logger        *slog.Logger
	secureCookies bool
	claimForms    []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSecureCookies marks session cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secureCookies = secure
	}
}

// WithClaimForms sets the form keys seeded into new claims.
func WithClaimForms(keys ...string) Option {
	return func(s *Server) {
		s.claimForms = append([]string(nil), keys...)
	}
}

// New builds a Server.
func New(authSvc *auth.Service, claimSvc *claims.Service, opts ...Option) (*Server, error) {
	if authSvc == nil {
		return nil, fmt.Errorf("httpapi: auth service is required")
	}
	if claimSvc == nil {
		return nil, fmt.Errorf("httpapi: claims service is required")
	}
	s := &Server{
		auth:      authSvc,
		claims:    claimSvc,
		templates: claimSvc.Templates(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.progress = progress.New(progress.WithLogger(s.logger))
	return s, nil
}

// RegisterRoutes mounts every route on mux.
func (s *Server) RegisterRoutes(mux Mux) {
	mux.Handle("POST /auth/signup", http.HandlerFunc(s.handleSignup))
	mux.Handle("POST /auth/login", http.HandlerFunc(s.handleLogin))
	mux.Handle("GET /auth/logout", http.HandlerFunc(s.handleLogout))
	mux.Handle("POST /auth/password", s.authenticatedOr404(s.handleChangePassword))

	mux.Handle("GET /api/claims/current", s.authenticatedOr404(s.handleCurrentClaim))
	mux.Handle("GET /api/claims/{id}/forms", s.authenticatedOr404(s.handleListForms))
	mux.Handle("PUT /api/claims/{id}/forms/{key}", s.authenticatedOr404(s.handleSaveForm))
	mux.Handle("GET /api/claims/{id}/progress", s.authenticatedOr404(s.handleClaimProgress))
	mux.Handle("PUT /api/claims/{id}/state", s.authenticatedOr404(s.handleSetState))
	mux.Handle("POST /api/claims/{id}/submit", s.authenticatedOr404(s.handleSubmit))

	mux.Handle("POST /api/progress/{key}", http.HandlerFunc(s.handleEvaluate))
	mux.Handle("GET /api/templates", http.HandlerFunc(s.handleListTemplates))
	mux.Handle("GET /api/templates/{key}", http.HandlerFunc(s.handleGetTemplate))
}

// Handler returns the API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusErr := classify(err)
	status := statusErr.StatusCode()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: statusErr.Reason})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest(errors.New("request body is empty"))
		}
		return badRequest(fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func pathValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}
