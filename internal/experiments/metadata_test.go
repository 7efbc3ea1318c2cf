package experiments

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openlearnhq/experiments/internal/catalog"
	"github.com/openlearnhq/experiments/internal/enrollment"
	"github.com/openlearnhq/experiments/internal/flags"
)

func demoProgram(t *testing.T) catalog.Program {
	t.Helper()
	return catalog.Program{
		UUID:         uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Title:        "Demo Program",
		MarketingURL: "https://example.com/programs/demo",
		Courses: []catalog.Course{
			{Key: "edX+DemoX", CourseRuns: []catalog.CourseRun{verifiedRun(demoKey, "149.00", "SKU-DEMO")}},
			{Key: "edX+NextX", CourseRuns: []catalog.CourseRun{verifiedRun("course-v1:edX+NextX+1", "199.00", "SKU-NEXT")}},
		},
	}
}

func TestUserMetadataContext_Basics(t *testing.T) {
	f := newTestService(t)
	deadline := testNow.Add(7 * 24 * time.Hour)
	f.enroll(t, auditEnrollment(t, "alice", demoKey, deadline))

	course := demoCourse(t)
	user := User{Username: "alice", Authenticated: true}

	meta, err := f.svc.UserMetadataContext(context.Background(), course, user)
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}

	if meta.EnrollmentMode != "audit" {
		t.Errorf("EnrollmentMode = %q, want audit", meta.EnrollmentMode)
	}
	if meta.EnrollmentTime == nil {
		t.Error("EnrollmentTime is nil for an active enrollment")
	}
	if meta.PacingType != "self_paced" {
		t.Errorf("PacingType = %q, want self_paced", meta.PacingType)
	}
	if meta.UpgradePrice != "$149" {
		t.Errorf("UpgradePrice = %q, want $149", meta.UpgradePrice)
	}
	if meta.UpgradeLink == "" || meta.UpgradeDeadline == nil {
		t.Error("expected upgrade link and deadline inside the upgrade window")
	}
	if meta.CourseKey != course.Key {
		t.Errorf("CourseKey = %v", meta.CourseKey)
	}
	if meta.HasNonAuditEnrollments == nil || *meta.HasNonAuditEnrollments {
		t.Error("HasNonAuditEnrollments should be false for an audit-only user")
	}
	// Flags are off by default: no program block.
	if meta.ProgramFields != nil {
		t.Errorf("ProgramFields = %+v, want nil with flags off", meta.ProgramFields)
	}
}

func TestUserMetadataContext_NotEnrolled(t *testing.T) {
	f := newTestService(t)
	course := demoCourse(t)
	user := User{Username: "alice", Authenticated: true}

	meta, err := f.svc.UserMetadataContext(context.Background(), course, user)
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	if meta.EnrollmentMode != "" || meta.EnrollmentTime != nil {
		t.Errorf("expected empty enrollment fields, got %q / %v", meta.EnrollmentMode, meta.EnrollmentTime)
	}
	if meta.UpgradeLink != "" || meta.UpgradeDeadline != nil {
		t.Error("expected no upgrade link for unenrolled user")
	}
	if meta.HasNonAuditEnrollments == nil || *meta.HasNonAuditEnrollments {
		t.Error("HasNonAuditEnrollments should be false with no enrollments")
	}
}

func TestUserMetadataContext_ProgramInfoFlag(t *testing.T) {
	f := newTestService(t)
	f.catalog.AddProgram(demoProgram(t))
	f.enableFlag(t, flags.FlagAddPrograms)
	f.enroll(t, auditEnrollment(t, "alice", demoKey, testNow.Add(time.Hour)))

	course := demoCourse(t)
	user := User{Username: "alice", Authenticated: true}

	meta, err := f.svc.UserMetadataContext(context.Background(), course, user)
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	pf := meta.ProgramFields
	if pf == nil {
		t.Fatal("ProgramFields missing with add_programs enabled")
	}
	if pf.Title != "Demo Program" {
		t.Errorf("Title = %q", pf.Title)
	}
	if pf.TotalCourses == nil || *pf.TotalCourses != 2 {
		t.Errorf("TotalCourses = %v, want 2", pf.TotalCourses)
	}
	if pf.CompleteEnrollment {
		t.Error("CompleteEnrollment true while only enrolled in one of two courses")
	}
	// Price flag is off: no pricing block.
	if pf.CoursesLeftToPurchasePrice != "" || pf.CoursesLeftToPurchaseURL != "" || pf.HasCoursesLeftToPurchase {
		t.Errorf("pricing fields populated with add_program_price off: %+v", pf)
	}
}

func TestUserMetadataContext_ProgramPriceFlag(t *testing.T) {
	f := newTestService(t)
	f.catalog.AddProgram(demoProgram(t))
	f.enableFlag(t, flags.FlagAddPrograms)
	f.enableFlag(t, flags.FlagAddProgramPrice)
	// alice audits the demo course; she has purchased nothing.
	f.enroll(t, auditEnrollment(t, "alice", demoKey, testNow.Add(time.Hour)))

	course := demoCourse(t)
	user := User{Username: "alice", Authenticated: true}

	meta, err := f.svc.UserMetadataContext(context.Background(), course, user)
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	pf := meta.ProgramFields
	if pf == nil {
		t.Fatal("ProgramFields missing")
	}
	if !pf.HasCoursesLeftToPurchase {
		t.Error("HasCoursesLeftToPurchase should be true")
	}
	// Audit enrollments don't count as purchases: both courses are left.
	if pf.CoursesLeftToPurchasePrice != "$348" {
		t.Errorf("CoursesLeftToPurchasePrice = %q, want $348", pf.CoursesLeftToPurchasePrice)
	}
	if !strings.Contains(pf.CoursesLeftToPurchaseURL, "bundle=11111111-2222-3333-4444-555555555555") {
		t.Errorf("CoursesLeftToPurchaseURL = %q, missing bundle", pf.CoursesLeftToPurchaseURL)
	}
	if !strings.Contains(pf.CoursesLeftToPurchaseURL, "sku=SKU-DEMO") ||
		!strings.Contains(pf.CoursesLeftToPurchaseURL, "sku=SKU-NEXT") {
		t.Errorf("CoursesLeftToPurchaseURL = %q, missing SKUs", pf.CoursesLeftToPurchaseURL)
	}
}

func TestUserMetadataContext_VerifiedPurchaseReducesProgramPrice(t *testing.T) {
	f := newTestService(t)
	f.catalog.AddProgram(demoProgram(t))
	f.enableFlag(t, flags.FlagAddPrograms)
	f.enableFlag(t, flags.FlagAddProgramPrice)

	e := auditEnrollment(t, "alice", demoKey, testNow.Add(time.Hour))
	e.Mode = enrollment.ModeVerified
	f.enroll(t, e)

	course := demoCourse(t)
	user := User{Username: "alice", Authenticated: true}

	meta, err := f.svc.UserMetadataContext(context.Background(), course, user)
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	pf := meta.ProgramFields
	if pf == nil {
		t.Fatal("ProgramFields missing")
	}
	if pf.CoursesLeftToPurchasePrice != "$199" {
		t.Errorf("CoursesLeftToPurchasePrice = %q, want $199 (only the unpurchased course)", pf.CoursesLeftToPurchasePrice)
	}
	if meta.HasNonAuditEnrollments == nil || !*meta.HasNonAuditEnrollments {
		t.Error("HasNonAuditEnrollments should be true with a verified enrollment")
	}
}

func TestUserMetadataContext_ForumRolesAndPartitions(t *testing.T) {
	f := newTestService(t)
	course := demoCourse(t)
	f.enrollments.SetForumRoles("alice", course.Key, []string{"Moderator"})
	f.partitions.Set("alice", course.Key, map[string]string{"Enrollment Track": "Audit"})

	meta, err := f.svc.UserMetadataContext(context.Background(), course, User{Username: "alice", Authenticated: true})
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	if len(meta.ForumRoles) != 1 || meta.ForumRoles[0] != "Moderator" {
		t.Errorf("ForumRoles = %v", meta.ForumRoles)
	}
	if meta.PartitionGroups["Enrollment Track"] != "Audit" {
		t.Errorf("PartitionGroups = %v", meta.PartitionGroups)
	}

	// Unauthenticated users get empty roles and partitions.
	meta, err = f.svc.UserMetadataContext(context.Background(), course, User{Username: "alice", Authenticated: false})
	if err != nil {
		t.Fatalf("UserMetadataContext returned error: %v", err)
	}
	if len(meta.ForumRoles) != 0 || len(meta.PartitionGroups) != 0 {
		t.Errorf("unauthenticated user got roles %v / partitions %v", meta.ForumRoles, meta.PartitionGroups)
	}
}

func TestDashboardMetadata(t *testing.T) {
	f := newTestService(t)
	enrollments := []enrollment.Enrollment{
		{CourseKey: mustKey(t, "course-v1:edX+A+1"), CoursePrice: decimal.NewFromInt(149)},
		{CourseKey: mustKey(t, "course-v1:edX+B+1"), CoursePrice: decimal.RequireFromString("99.50")},
	}

	got := f.svc.DashboardMetadata(enrollments)
	if got["course-v1:edX+A+1"] != "$149" {
		t.Errorf("price A = %q", got["course-v1:edX+A+1"])
	}
	if got["course-v1:edX+B+1"] != "$99.50" {
		t.Errorf("price B = %q", got["course-v1:edX+B+1"])
	}
}

func TestLoadCourseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.yaml")
	content := `courses:
  - key: course-v1:edX+DemoX+Demo
    self_paced: true
    verified_price: "149.00"
    verified_sku: SKU-DEMO
    start: 2026-01-01T00:00:00Z
  - key: course-v1:edX+NextX+1
    verified_price: "199.00"
    verified_sku: SKU-NEXT
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write course file: %v", err)
	}

	idx, err := LoadCourseFile(path)
	if err != nil {
		t.Fatalf("LoadCourseFile returned error: %v", err)
	}

	course, err := idx.Course(mustKey(t, demoKey))
	if err != nil {
		t.Fatalf("Course returned error: %v", err)
	}
	if !course.SelfPaced || course.VerifiedSKU != "SKU-DEMO" {
		t.Errorf("unexpected course: %+v", course)
	}
	if !course.VerifiedPrice.Equal(decimal.NewFromInt(149)) {
		t.Errorf("VerifiedPrice = %s", course.VerifiedPrice)
	}
	if course.Start == nil || course.Start.Year() != 2026 {
		t.Errorf("Start = %v", course.Start)
	}

	if _, err := idx.Course(mustKey(t, "course-v1:edX+Missing+1")); err == nil {
		t.Error("expected error for missing course")
	}
}

func TestLoadCourseFile_BadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.yaml")
	if err := os.WriteFile(path, []byte("courses:\n  - key: nope\n"), 0o600); err != nil {
		t.Fatalf("write course file: %v", err)
	}
	if _, err := LoadCourseFile(path); err == nil {
		t.Error("expected error for invalid course key")
	}
}
