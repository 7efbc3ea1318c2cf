// Package experiments builds the per-user, per-course experiment metadata
// consumed by templates: upgrade eligibility, program pricing roll-ups,
// enrollment state, and assorted user context.
package experiments

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/commerce"
	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/flags"
)

// User is the requesting user, as established by the web layer.
type User struct {
	Username      string
	Authenticated bool
	// Staff grants preview-mode access to unpublished course content.
	Staff bool
}

// Course is the courseware view of a course run: the scheduling and pricing
// fields the metadata context needs.
type Course struct {
	Key           coursekey.CourseKey `json:"key" yaml:"key"`
	Start         *time.Time          `json:"start,omitempty" yaml:"start,omitempty"`
	End           *time.Time          `json:"end,omitempty" yaml:"end,omitempty"`
	SelfPaced     bool                `json:"selfPaced" yaml:"self_paced"`
	VerifiedPrice decimal.Decimal     `json:"verifiedPrice" yaml:"verified_price"`
	VerifiedSKU   string              `json:"verifiedSku" yaml:"verified_sku"`
}

// PacingType returns the template-facing pacing label for the course.
func (c *Course) PacingType() string {
	if c.SelfPaced {
		return "self_paced"
	}
	return "instructor_paced"
}

// PartitionService looks up the content-group partitions a user belongs to
// in a course (partition name -> group name).
type PartitionService interface {
	UserPartitionGroups(ctx context.Context, username string, key coursekey.CourseKey) (map[string]string, error)
}

// StaticPartitions is an in-memory PartitionService for development and tests.
type StaticPartitions struct {
	mu     sync.RWMutex
	groups map[string]map[string]string // username|courseKey -> partition -> group
}

// NewStaticPartitions creates an empty partition service.
func NewStaticPartitions() *StaticPartitions {
	return &StaticPartitions{groups: make(map[string]map[string]string)}
}

// Set assigns the user's partition groups in a course.
func (s *StaticPartitions) Set(username string, key coursekey.CourseKey, groups map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[username+"|"+key.String()] = groups
}

// UserPartitionGroups returns the user's partition groups in a course.
func (s *StaticPartitions) UserPartitionGroups(ctx context.Context, username string, key coursekey.CourseKey) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string, len(s.groups[username+"|"+key.String()]))
	for partition, group := range s.groups[username+"|"+key.String()] {
		result[partition] = group
	}
	return result, nil
}

// Config carries the collaborators a Service needs.
type Config struct {
	Enrollments enrollment.Store
	Catalog     catalog.Catalog
	Commerce    *commerce.Service
	Flags       *flags.Evaluator
	Partitions  PartitionService
	Log         zerolog.Logger
	// Now overrides the clock in tests; defaults to time.Now.
	Now func() time.Time
}

// Service computes experiment metadata over the enrollment store and the
// remote catalog/commerce collaborators.
type Service struct {
	enrollments enrollment.Store
	catalog     catalog.Catalog
	commerce    *commerce.Service
	flags       *flags.Evaluator
	partitions  PartitionService
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a metadata service.
func NewService(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	partitions := cfg.Partitions
	if partitions == nil {
		partitions = NewStaticPartitions()
	}
	return &Service{
		enrollments: cfg.Enrollments,
		catalog:     cfg.Catalog,
		commerce:    cfg.Commerce,
		flags:       cfg.Flags,
		partitions:  partitions,
		log:         cfg.Log,
		now:         now,
	}
}
