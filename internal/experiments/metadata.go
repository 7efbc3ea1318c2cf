package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openlearnhq/experiments/internal/coursekey"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/flags"
	"github.com/openlearnhq/experiments/internal/pricing"
)

// ProgramFields is the program block of the user metadata context. Field
// names match the keys the user_metadata template consumes.
type ProgramFields struct {
	UUID                       uuid.UUID `json:"uuid"`
	Title                      string    `json:"title"`
	MarketingURL               string    `json:"marketing_url"`
	TotalCourses               *int      `json:"total_courses"`
	CompleteEnrollment         bool      `json:"complete_enrollment"`
	HasCoursesLeftToPurchase   bool      `json:"has_courses_left_to_purchase"`
	CoursesLeftToPurchasePrice string    `json:"courses_left_to_purchase_price,omitempty"`
	CoursesLeftToPurchaseURL   string    `json:"courses_left_to_purchase_url,omitempty"`
}

// UserMetadata is the context dictionary rendered into experiment templates.
type UserMetadata struct {
	UpgradeLink            string              `json:"upgrade_link,omitempty"`
	UpgradePrice           string              `json:"upgrade_price"`
	EnrollmentMode         string              `json:"enrollment_mode,omitempty"`
	EnrollmentTime         *time.Time          `json:"enrollment_time,omitempty"`
	PacingType             string              `json:"pacing_type"`
	UpgradeDeadline        *time.Time          `json:"upgrade_deadline,omitempty"`
	CourseKey              coursekey.CourseKey `json:"course_key"`
	CourseStart            *time.Time          `json:"course_start,omitempty"`
	CourseEnd              *time.Time          `json:"course_end,omitempty"`
	HasStaffAccess         bool                `json:"has_staff_access"`
	ForumRoles             []string            `json:"forum_roles"`
	PartitionGroups        map[string]string   `json:"partition_groups"`
	HasNonAuditEnrollments *bool               `json:"has_non_audit_enrollments"`
	ProgramFields          *ProgramFields      `json:"program_key_fields,omitempty"`
}

// UserMetadataContext assembles the experiment metadata for a user viewing a
// course. Collaborator failures that only affect optional blocks (program
// info, partitions) degrade to those blocks being absent; enrollment store
// failures are reported.
func (s *Service) UserMetadataContext(ctx context.Context, course Course, user User) (*UserMetadata, error) {
	meta := &UserMetadata{
		UpgradePrice:    pricing.FormatUSD(course.VerifiedPrice),
		PacingType:      course.PacingType(),
		CourseKey:       course.Key,
		CourseStart:     course.Start,
		CourseEnd:       course.End,
		HasStaffAccess:  user.Staff,
		ForumRoles:      []string{},
		PartitionGroups: map[string]string{},
	}

	userEnrollments, err := s.enrollments.ListForUser(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	var nonAuditEnrollments []enrollment.Enrollment
	for _, e := range userEnrollments {
		if !e.Mode.IsAudit() {
			nonAuditEnrollments = append(nonAuditEnrollments, e)
		}
	}
	hasNonAudit := len(nonAuditEnrollments) > 0
	meta.HasNonAuditEnrollments = &hasNonAudit

	flagAttrs := map[string]any{"staff": user.Staff}
	if s.flags.Enabled(ctx, flags.FlagAddPrograms, user.Username, flagAttrs) {
		meta.ProgramFields = s.programFields(ctx, course, user, userEnrollments, nonAuditEnrollments, flagAttrs)
	}

	var enr *enrollment.Enrollment
	for i := range userEnrollments {
		if userEnrollments[i].CourseKey == course.Key {
			enr = &userEnrollments[i]
			break
		}
	}
	if enr != nil && enr.Active {
		meta.EnrollmentMode = string(enr.Mode)
		created := enr.Created
		meta.EnrollmentTime = &created
	}

	link, deadline, err := s.UpgradeLinkAndDate(ctx, user, enr, &course)
	if err != nil {
		return nil, fmt.Errorf("upgrade link: %w", err)
	}
	meta.UpgradeLink = link
	meta.UpgradeDeadline = deadline

	if user.Authenticated {
		roles, err := s.enrollments.ForumRoles(ctx, user.Username, course.Key)
		if err != nil {
			return nil, fmt.Errorf("forum roles: %w", err)
		}
		if roles != nil {
			meta.ForumRoles = roles
		}

		groups, err := s.partitions.UserPartitionGroups(ctx, user.Username, course.Key)
		if err != nil {
			s.log.Warn().Err(err).Str("user", user.Username).Str("course", course.Key.String()).
				Msg("partition lookup failed; omitting partition groups")
		} else if groups != nil {
			meta.PartitionGroups = groups
		}
	}

	return meta, nil
}

// programFields builds the program block for the course, or nil when the
// course is not part of a program or the catalog is unavailable.
func (s *Service) programFields(
	ctx context.Context,
	course Course,
	user User,
	userEnrollments, nonAuditEnrollments []enrollment.Enrollment,
	flagAttrs map[string]any,
) *ProgramFields {
	programs, err := s.catalog.ProgramsForCourse(ctx, course.Key.String())
	if err != nil {
		s.log.Warn().Err(err).Str("course", course.Key.String()).
			Msg("program lookup failed; omitting program metadata")
		return nil
	}
	if len(programs) == 0 {
		return nil
	}

	// A course can be in multiple programs; take the first one.
	program := programs[0]
	fields := &ProgramFields{
		UUID:         program.UUID,
		Title:        program.Title,
		MarketingURL: program.MarketingURL,
	}

	if program.Courses == nil {
		return fields
	}

	total := len(program.Courses)
	fields.TotalCourses = &total
	fields.CompleteEnrollment = s.EnrolledInAllCourses(program.Courses, userEnrollments)

	if !s.flags.Enabled(ctx, flags.FlagAddProgramPrice, user.Username, flagAttrs) {
		return fields
	}

	// Price the program courses the user has yet to purchase. Say a
	// program has courses A, B and C, the user bought a certificate for A
	// and audits B: the "left to purchase" price covers B and C.
	leftToPurchase := s.UnenrolledCourses(program.Courses, nonAuditEnrollments)
	if len(leftToPurchase) > 0 {
		fields.HasCoursesLeftToPurchase = true
	}
	price, skus := ProgramPriceAndSKUs(leftToPurchase, s.now())
	fields.CoursesLeftToPurchasePrice = price
	fields.CoursesLeftToPurchaseURL = s.commerce.CheckoutPageURL(program.UUID.String(), skus...)

	return fields
}

// DashboardMetadata maps each enrollment's course id to its display price,
// for the dashboard experiment template.
func (s *Service) DashboardMetadata(enrollments []enrollment.Enrollment) map[string]string {
	result := make(map[string]string, len(enrollments))
	for _, e := range enrollments {
		result[e.CourseKey.String()] = pricing.FormatUSD(e.CoursePrice)
	}
	return result
}

// UserDashboardMetadata loads the user's enrollments and returns the
// dashboard price map.
func (s *Service) UserDashboardMetadata(ctx context.Context, username string) (map[string]string, error) {
	userEnrollments, err := s.enrollments.ListForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return s.DashboardMetadata(userEnrollments), nil
}

// Enrollment returns the user's enrollment in a course, or nil when the user
// is not enrolled.
func (s *Service) Enrollment(ctx context.Context, username string, key coursekey.CourseKey) (*enrollment.Enrollment, error) {
	enr, err := s.enrollments.Get(ctx, username, key)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return enr, nil
}
