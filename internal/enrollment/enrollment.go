// Package enrollment provides the course enrollment model and its
// persistence layer.
package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/coursekey"
)

// ErrNotFound is returned when no enrollment exists for a user and course.
var ErrNotFound = errors.New("enrollment not found")

// Mode is the enrollment track a user is in for a course.
type Mode string

const (
	ModeAudit        Mode = "audit"
	ModeHonor        Mode = "honor"
	ModeVerified     Mode = "verified"
	ModeProfessional Mode = "professional"
)

// IsAudit reports whether the mode is a free, non-certificate track.
func (m Mode) IsAudit() bool {
	return m == ModeAudit || m == ModeHonor
}

// Enrollment represents a user's enrollment in a single course run.
type Enrollment struct {
	Username        string              `json:"username"`
	CourseKey       coursekey.CourseKey `json:"courseKey"`
	Mode            Mode                `json:"mode"`
	Active          bool                `json:"active"`
	Created         time.Time           `json:"created"`
	UpgradeDeadline *time.Time          `json:"upgradeDeadline,omitempty"`
	CoursePrice     decimal.Decimal     `json:"coursePrice"`
}

// UpgradeWindowOpen reports whether the enrollment can still be upgraded to
// the verified track: the enrollment is active, in an audit-style mode, and
// its upgrade deadline (if any) has not passed.
func (e *Enrollment) UpgradeWindowOpen(now time.Time) bool {
	if e == nil || !e.Active || !e.Mode.IsAudit() {
		return false
	}
	if e.UpgradeDeadline == nil {
		return false
	}
	return now.Before(*e.UpgradeDeadline)
}

// Store defines the interface for enrollment persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a user's enrollment in a course.
	// Returns ErrNotFound if the user is not enrolled.
	Get(ctx context.Context, username string, key coursekey.CourseKey) (*Enrollment, error)

	// ListForUser retrieves all of a user's enrollments.
	// Returns an empty slice if the user has none.
	ListForUser(ctx context.Context, username string) ([]Enrollment, error)

	// Upsert creates or updates an enrollment, keyed on (username, course).
	Upsert(ctx context.Context, e Enrollment) error

	// ForumRoles returns the distinct discussion-forum role names the user
	// holds in the course (e.g. "Moderator", "Community TA").
	ForumRoles(ctx context.Context, username string, key coursekey.CourseKey) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
