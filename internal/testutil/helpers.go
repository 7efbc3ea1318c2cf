// Package testutil provides helpers for tests that need a fully wired API
// server backed by in-memory stores.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/api"
	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/commerce"
	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/experiments"
	"github.com/openlearnhq/experiments/internal/flags"
)

// Fixture bundles a wired API server with the in-memory stores behind it so
// tests can seed state directly.
type Fixture struct {
	Server      *api.Server
	Enrollments *enrollment.MemoryStore
	Flags       *flags.MemoryStore
	Catalog     *catalog.StaticCatalog
	Courses     *experiments.CourseIndex
}

// NewTestServer creates an API server with in-memory stores for testing.
func NewTestServer(t *testing.T, env, adminKey string) *Fixture {
	t.Helper()

	enrollments := enrollment.NewMemoryStore()
	flagStore := flags.NewMemoryStore()
	cat := catalog.NewStaticCatalog()
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	svc := experiments.NewService(experiments.Config{
		Enrollments: enrollments,
		Catalog:     cat,
		Commerce:    commerce.NewService("https://ecommerce.example.com"),
		Flags:       flags.NewEvaluator(flagStore, "test-salt", log),
		Log:         log,
	})
	courses := experiments.NewCourseIndex()

	return &Fixture{
		Server:      api.NewServer(svc, courses, flagStore, env, adminKey, log),
		Enrollments: enrollments,
		Flags:       flagStore,
		Catalog:     cat,
		Courses:     courses,
	}
}

// AddCourse registers a self-paced verified course in the fixture's index and
// returns its parsed key.
func (f *Fixture) AddCourse(t *testing.T, key, sku string, price int64) coursekey.CourseKey {
	t.Helper()
	parsed, err := coursekey.Parse(key)
	if err != nil {
		t.Fatalf("bad course key %q: %v", key, err)
	}
	f.Courses.Add(experiments.Course{
		Key:           parsed,
		SelfPaced:     true,
		VerifiedPrice: decimal.NewFromInt(price),
		VerifiedSKU:   sku,
	})
	return parsed
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedFlags populates the store with test flags.
func SeedFlags(ctx context.Context, st flags.Store, params []flags.UpsertParams) error {
	for _, p := range params {
		if err := st.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
