package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlearnhq/experiments/internal/flags"
)

type upsertFlagRequest struct {
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
	Rollout     int32   `json:"rollout"`
	Audience    *string `json:"audience,omitempty"`
	Env         string  `json:"env"`
}

// handleListFlags serves GET /v1/flags?env=. Defaults to the server's
// environment when env is not given.
func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("env")
	if env == "" {
		env = s.env
	}

	list, err := s.flagStore.List(r.Context(), env)
	if err != nil {
		s.log.Error().Err(err).Str("env", env).Msg("flag list failed")
		internalError(w, r, "failed to list flags")
		return
	}
	if list == nil {
		list = []flags.Flag{}
	}

	writeJSON(w, http.StatusOK, list)
}

// handleUpsertFlag serves PUT /v1/flags/{name}. Admin only.
func (s *Server) handleUpsertFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		badRequest(w, r, ErrCodeMissingField, "flag name is required")
		return
	}

	var req upsertFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, ErrCodeInvalidJSON, "invalid JSON body")
		return
	}

	if err := flags.ValidateRollout(req.Rollout); err != nil {
		badRequest(w, r, ErrCodeInvalidRollout, err.Error())
		return
	}
	if req.Audience != nil {
		if err := flags.ValidateAudience(*req.Audience); err != nil {
			badRequest(w, r, ErrCodeValidation, err.Error())
			return
		}
	}

	env := req.Env
	if env == "" {
		env = s.env
	}

	params := flags.UpsertParams{
		Name:        name,
		Description: req.Description,
		Enabled:     req.Enabled,
		Rollout:     req.Rollout,
		Audience:    req.Audience,
		Env:         env,
	}
	if err := s.flagStore.Upsert(r.Context(), params); err != nil {
		s.log.Error().Err(err).Str("flag", name).Msg("flag upsert failed")
		internalError(w, r, "failed to upsert flag")
		return
	}

	flag, err := s.flagStore.Get(r.Context(), name)
	if err != nil {
		internalError(w, r, "failed to read back flag")
		return
	}

	writeJSON(w, http.StatusOK, flag)
}
