package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/experiments"
	"github.com/openlearnhq/experiments/internal/telemetry"
)

// handleUserMetadata serves
// GET /v1/users/{username}/courses/{courseKey}/metadata.
//
// Query parameters: authenticated (default true) and staff (default false)
// carry what the caller knows about the session.
func (s *Server) handleUserMetadata(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	rawKey, err := url.PathUnescape(chi.URLParam(r, "courseKey"))
	if err != nil {
		badRequest(w, r, ErrCodeInvalidCourseKey, "course key is not valid URL encoding")
		return
	}
	key, err := coursekey.Parse(rawKey)
	if err != nil {
		badRequest(w, r, ErrCodeInvalidCourseKey, err.Error())
		return
	}

	course, err := s.courses.Course(key)
	if err != nil {
		if errors.Is(err, experiments.ErrCourseNotFound) {
			notFound(w, r, "unknown course: "+key.String())
			return
		}
		internalError(w, r, "course lookup failed")
		return
	}

	user := experiments.User{
		Username:      username,
		Authenticated: r.URL.Query().Get("authenticated") != "false",
		Staff:         r.URL.Query().Get("staff") == "true",
	}

	meta, err := s.svc.UserMetadataContext(r.Context(), *course, user)
	if err != nil {
		s.log.Error().Err(err).Str("user", username).Str("course", key.String()).Msg("metadata build failed")
		internalError(w, r, "metadata build failed")
		return
	}

	withPrograms := "false"
	if meta.ProgramFields != nil {
		withPrograms = "true"
	}
	telemetry.MetadataBuilds.WithLabelValues(withPrograms).Inc()

	writeJSON(w, http.StatusOK, meta)
}

// handleDashboard serves GET /v1/users/{username}/dashboard: course id ->
// display price for every enrollment the user holds.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	prices, err := s.svc.UserDashboardMetadata(r.Context(), username)
	if err != nil {
		s.log.Error().Err(err).Str("user", username).Msg("dashboard metadata failed")
		internalError(w, r, "dashboard metadata failed")
		return
	}

	writeJSON(w, http.StatusOK, prices)
}
