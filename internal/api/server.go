// Package api exposes the experiments service over HTTP: stable bucket
// assignment, user metadata contexts, and the admin flag surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/openlearnhq/experiments/internal/auth"
	"github.com/openlearnhq/experiments/internal/experiments"
	"github.com/openlearnhq/experiments/internal/flags"
	"github.com/openlearnhq/experiments/internal/telemetry"
)

// Server holds the handlers' dependencies.
type Server struct {
	svc         *experiments.Service
	courses     *experiments.CourseIndex
	flagStore   flags.Store
	env         string
	adminAPIKey string
	log         zerolog.Logger

	// RateLimitPerIP caps unauthenticated requests per minute per IP.
	// RateLimitPerKey caps admin requests per minute per API key.
	// Zero disables the corresponding limiter (tests).
	RateLimitPerIP  int
	RateLimitPerKey int
}

// NewServer creates an API server.
func NewServer(svc *experiments.Service, courses *experiments.CourseIndex, flagStore flags.Store, env, adminKey string, log zerolog.Logger) *Server {
	return &Server{
		svc:         svc,
		courses:     courses,
		flagStore:   flagStore,
		env:         env,
		adminAPIKey: adminKey,
		log:         log,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)
	r.Use(s.requestLogger)
	if s.RateLimitPerIP > 0 {
		r.Use(httprate.LimitByIP(s.RateLimitPerIP, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/v1/bucket", s.handleBucket)
	r.Get("/v1/users/{username}/courses/{courseKey}/metadata", s.handleUserMetadata)
	r.Get("/v1/users/{username}/dashboard", s.handleDashboard)

	r.Get("/v1/flags", s.handleListFlags)

	r.Group(func(r chi.Router) {
		if s.RateLimitPerKey > 0 {
			r.Use(httprate.Limit(s.RateLimitPerKey, time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
					return r.Header.Get("Authorization"), nil
				})))
		}
		r.Put("/v1/flags/{name}", s.authAdmin(s.handleUpsertFlag))
	})

	return r
}

// requestLogger emits one structured log line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// authAdmin guards mutating routes with the admin API key.
func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminAPIKey == "" {
			unauthorized(w, r, "admin API is not configured")
			return
		}
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if !auth.VerifyAPIKeyConstantTime(token, s.adminAPIKey) {
			unauthorized(w, r, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
