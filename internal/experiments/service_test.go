package experiments

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/commerce"
	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/flags"
)

// testNow is the frozen clock used by all service tests.
var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testFixture struct {
	svc         *Service
	enrollments *enrollment.MemoryStore
	catalog     *catalog.StaticCatalog
	flags       *flags.MemoryStore
	partitions  *StaticPartitions
}

func newTestService(t *testing.T) *testFixture {
	t.Helper()

	enrollments := enrollment.NewMemoryStore()
	cat := catalog.NewStaticCatalog()
	flagStore := flags.NewMemoryStore()
	partitions := NewStaticPartitions()
	log := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	svc := NewService(Config{
		Enrollments: enrollments,
		Catalog:     cat,
		Commerce:    commerce.NewService("https://ecommerce.example.com"),
		Flags:       flags.NewEvaluator(flagStore, "test-salt", log),
		Partitions:  partitions,
		Log:         log,
		Now:         func() time.Time { return testNow },
	})

	return &testFixture{
		svc:         svc,
		enrollments: enrollments,
		catalog:     cat,
		flags:       flagStore,
		partitions:  partitions,
	}
}

func mustKey(t *testing.T, s string) coursekey.CourseKey {
	t.Helper()
	key, err := coursekey.Parse(s)
	if err != nil {
		t.Fatalf("bad course key %q: %v", s, err)
	}
	return key
}

func (f *testFixture) enroll(t *testing.T, e enrollment.Enrollment) {
	t.Helper()
	if err := f.enrollments.Upsert(context.Background(), e); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
}

func (f *testFixture) enableFlag(t *testing.T, name string) {
	t.Helper()
	params := flags.UpsertParams{Name: name, Enabled: true, Rollout: 100, Env: "test"}
	if err := f.flags.Upsert(context.Background(), params); err != nil {
		t.Fatalf("seed flag %q: %v", name, err)
	}
}

func auditEnrollment(t *testing.T, username, key string, deadline time.Time) enrollment.Enrollment {
	t.Helper()
	return enrollment.Enrollment{
		Username:        username,
		CourseKey:       mustKey(t, key),
		Mode:            enrollment.ModeAudit,
		Active:          true,
		Created:         testNow.Add(-30 * 24 * time.Hour),
		UpgradeDeadline: &deadline,
		CoursePrice:     decimal.NewFromInt(149),
	}
}
