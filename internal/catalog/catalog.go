// Package catalog provides read access to the course discovery service:
// which programs a course run belongs to, and the purchasable seats and
// entitlements attached to program courses.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SeatTypeVerified is the seat/entitlement mode that carries a certificate
// and a price.
const SeatTypeVerified = "verified"

// RunStatusPublished marks a course run that is live on the marketing site.
const RunStatusPublished = "published"

// Entitlement is a mode-level purchase option on a program course.
type Entitlement struct {
	Mode    string     `json:"mode"`
	Price   string     `json:"price"`
	SKU     string     `json:"sku"`
	Expires *time.Time `json:"expires,omitempty"`
}

// Seat is a purchasable mode on a specific course run.
type Seat struct {
	Type  string `json:"type"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

// CourseRun is a single scheduled run of a course.
type CourseRun struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Seats  []Seat `json:"seats"`
}

// Course is a program course with its runs and entitlements.
type Course struct {
	Key          string        `json:"key"`
	Title        string        `json:"title"`
	Entitlements []Entitlement `json:"entitlements,omitempty"`
	CourseRuns   []CourseRun   `json:"course_runs,omitempty"`
}

// Program is a bundle of courses sold together.
type Program struct {
	UUID         uuid.UUID `json:"uuid"`
	Title        string    `json:"title"`
	MarketingURL string    `json:"marketing_url"`
	Courses      []Course  `json:"courses,omitempty"`
}

// Catalog looks up program membership for course runs.
type Catalog interface {
	// ProgramsForCourse returns the programs containing the given course
	// run. Returns an empty slice when the course belongs to no program.
	ProgramsForCourse(ctx context.Context, courseRunKey string) ([]Program, error)
}
