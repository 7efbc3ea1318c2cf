package experiments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/pricing"
)

// EntitlementPriceAndSKU extracts the purchase price and SKU for a program
// course: the first non-expired verified entitlement that has both, falling
// back to the first published course run with a priced verified seat.
// ok is false when the course has nothing purchasable.
func EntitlementPriceAndSKU(course catalog.Course, now time.Time) (price decimal.Decimal, sku string, ok bool) {
	for _, ent := range course.Entitlements {
		if ent.Mode != catalog.SeatTypeVerified || ent.Price == "" || ent.SKU == "" {
			continue
		}
		if ent.Expires != nil && !ent.Expires.After(now) {
			continue
		}
		parsed, err := pricing.Parse(ent.Price)
		if err != nil {
			continue
		}
		return parsed, ent.SKU, true
	}

	for _, run := range course.CourseRuns {
		if run.Status != catalog.RunStatusPublished {
			continue
		}
		for _, seat := range run.Seats {
			if seat.Type != catalog.SeatTypeVerified || seat.Price == "" || seat.SKU == "" {
				continue
			}
			parsed, err := pricing.Parse(seat.Price)
			if err != nil {
				continue
			}
			return parsed, seat.SKU, true
		}
	}

	return decimal.Zero, "", false
}

// ProgramPriceAndSKUs sums the purchase price of the given program courses
// and collects their SKUs. Returns ("", nil) when nothing is purchasable;
// otherwise the price is display-formatted.
func ProgramPriceAndSKUs(courses []catalog.Course, now time.Time) (string, []string) {
	total := decimal.Zero
	var skus []string

	for _, course := range courses {
		price, sku, ok := EntitlementPriceAndSKU(course, now)
		if !ok {
			continue
		}
		total = total.Add(price)
		skus = append(skus, sku)
	}

	if !total.IsPositive() {
		return "", nil
	}
	return pricing.FormatUSD(total), skus
}

// enrollmentKeySet collects the course keys of the given enrollments.
func enrollmentKeySet(enrollments []enrollment.Enrollment) map[coursekey.CourseKey]struct{} {
	keys := make(map[coursekey.CourseKey]struct{}, len(enrollments))
	for _, e := range enrollments {
		keys[e.CourseKey] = struct{}{}
	}
	return keys
}

// enrolledInCourse reports whether any of the course's runs appears in the
// enrolled key set. A malformed run key counts as not enrolled rather than
// propagating an error.
func (s *Service) enrolledInCourse(course catalog.Course, enrolled map[coursekey.CourseKey]struct{}) bool {
	for _, run := range course.CourseRuns {
		key, err := coursekey.Parse(run.Key)
		if err != nil {
			s.log.Warn().Str("key", run.Key).
				Msg("unable to determine if user was enrolled since the course key is invalid")
			continue
		}
		if _, ok := enrolled[key]; ok {
			return true
		}
	}
	return false
}

// UnenrolledCourses returns the program courses in which the user holds none
// of the given enrollments. Depending on which enrollments are passed in,
// this yields the courses not yet enrolled in, or the courses not yet
// purchased.
func (s *Service) UnenrolledCourses(courses []catalog.Course, enrollments []enrollment.Enrollment) []catalog.Course {
	enrolled := enrollmentKeySet(enrollments)
	var result []catalog.Course
	for _, course := range courses {
		if !s.enrolledInCourse(course, enrolled) {
			result = append(result, course)
		}
	}
	return result
}

// EnrolledInAllCourses reports whether the user is enrolled in every course
// of the program.
func (s *Service) EnrolledInAllCourses(courses []catalog.Course, enrollments []enrollment.Enrollment) bool {
	enrolled := enrollmentKeySet(enrollments)
	for _, course := range courses {
		if !s.enrolledInCourse(course, enrolled) {
			return false
		}
	}
	return true
}
