package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/openlearnhq/experiments/internal/bucketing"
	"github.com/openlearnhq/experiments/internal/telemetry"
)

type bucketResponse struct {
	Experiment string `json:"experiment"`
	Username   string `json:"username"`
	GroupCount int    `json:"group_count"`
	Bucket     int    `json:"bucket"`
}

// handleBucket serves GET /v1/bucket?experiment=&username=&count=.
// Experiment and username may be empty strings; count must be >= 1.
func (s *Server) handleBucket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	experiment := q.Get("experiment")
	username := q.Get("username")

	countParam := q.Get("count")
	if countParam == "" {
		badRequest(w, r, ErrCodeMissingField, "count is required")
		return
	}
	count, err := strconv.Atoi(countParam)
	if err != nil {
		badRequest(w, r, ErrCodeInvalidGroupCount, "count must be an integer")
		return
	}

	bucket, err := bucketing.Assign(experiment, username, count)
	if err != nil {
		if errors.Is(err, bucketing.ErrInvalidGroupCount) {
			badRequest(w, r, ErrCodeInvalidGroupCount, err.Error())
			return
		}
		internalError(w, r, "bucket assignment failed")
		return
	}

	telemetry.BucketAssignments.WithLabelValues(experiment).Inc()
	writeJSON(w, http.StatusOK, bucketResponse{
		Experiment: experiment,
		Username:   username,
		GroupCount: count,
		Bucket:     bucket,
	})
}
