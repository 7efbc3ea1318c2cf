package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openlearnhq/experiments/internal/enrollment"
)

// ErrNoEnrollmentOrCourse is returned when UpgradeLinkAndDate is called with
// neither an enrollment nor a course.
var ErrNoEnrollmentOrCourse = errors.New("must specify either an enrollment or a course")

// UpgradeLinkAndDate returns the checkout link for upgrading the user to the
// verified track in the given course, plus the upgrade deadline.
//
// Both values are zero when the user cannot upgrade: unauthenticated, not
// enrolled, already verified, or past the upgrade deadline of the dynamic
// pacing schedule.
//
// Either enr or course may be nil, but not both. When enr is supplied it
// must belong to the given user and course; a mismatch is a programming
// error and is reported rather than silently producing a link for the wrong
// course.
func (s *Service) UpgradeLinkAndDate(ctx context.Context, user User, enr *enrollment.Enrollment, course *Course) (string, *time.Time, error) {
	if enr == nil && course == nil {
		return "", nil, ErrNoEnrollmentOrCourse
	}

	if enr != nil {
		if course != nil && enr.CourseKey != course.Key {
			return "", nil, fmt.Errorf("enrollment %s/%s refers to a different course than %s which was supplied",
				enr.Username, enr.CourseKey, course.Key)
		}
		if enr.Username != user.Username {
			return "", nil, fmt.Errorf("enrollment %s/%s refers to a different user than %s which was supplied",
				enr.Username, enr.CourseKey, user.Username)
		}
	}

	if enr == nil {
		var err error
		enr, err = s.enrollments.Get(ctx, user.Username, course.Key)
		if err != nil {
			if errors.Is(err, enrollment.ErrNotFound) {
				return "", nil, nil
			}
			return "", nil, fmt.Errorf("load enrollment: %w", err)
		}
	}

	if !user.Authenticated || !enr.UpgradeWindowOpen(s.now()) {
		return "", nil, nil
	}

	sku := ""
	if course != nil {
		sku = course.VerifiedSKU
	}
	link := s.commerce.CheckoutPageURL("", sku)
	if link == "" {
		// No verified seat to buy; the deadline alone is useless.
		return "", nil, nil
	}

	deadline := *enr.UpgradeDeadline
	return link, &deadline, nil
}
