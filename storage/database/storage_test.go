package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/core/user"
	"github.com/madrasa-labs/madrasa/storage/database"
	testutil "github.com/madrasa-labs/madrasa/tests"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t) // Migrate already ran once

	conf := &core.Config{Database: core.DatabaseConfig{AdminUsername: "admin", AdminPassword: "admin123"}}

	t.Run("second run is a no-op", func(t *testing.T) {
		if err := database.Migrate(ctx, db, conf); err != nil {
			t.Fatalf("Migrate() failed: %v", err)
		}
	})

	t.Run("admin is seeded with a working password", func(t *testing.T) {
		usr, err := database.NewUserRepository(db).GetUserByUsername(ctx, "admin")
		if err != nil {
			t.Fatalf("GetUserByUsername() failed: %v", err)
		}
		if usr.Role != user.RoleAdmin {
			t.Errorf("seeded admin role = %v, want %v", usr.Role, user.RoleAdmin)
		}
		if err = usr.CheckPassword("admin123"); err != nil {
			t.Errorf("seeded admin password check failed: %v", err)
		}
	})

	t.Run("demoted admin gets its role back", func(t *testing.T) {
		if _, err := db.Exec(`UPDATE users SET role = 'school' WHERE username = 'admin'`); err != nil {
			t.Fatalf("demoting admin failed: %v", err)
		}
		if err := database.Migrate(ctx, db, conf); err != nil {
			t.Fatalf("Migrate() failed: %v", err)
		}
		usr, err := database.NewUserRepository(db).GetUserByUsername(ctx, "admin")
		if err != nil {
			t.Fatalf("GetUserByUsername() failed: %v", err)
		}
		if usr.Role != user.RoleAdmin {
			t.Errorf("admin role = %v, want %v", usr.Role, user.RoleAdmin)
		}
	})
}

func TestAcademicYearRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := database.NewAcademicYearRepository(db)

	y2024 := testutil.CreateYear(t, repo, 2024, true)
	y2025 := testutil.CreateYear(t, repo, 2025, false)

	t.Run("create with clearCurrent moves the flag", func(t *testing.T) {
		year, err := repo.CreateYear(ctx, academic.AcademicYear{
			Name: "2026/2027", StartYear: 2026, EndYear: 2027, IsCurrent: 1,
		}, true)
		if err != nil {
			t.Fatalf("CreateYear() failed: %v", err)
		}
		if year.IsCurrent != 1 {
			t.Errorf("CreateYear() isCurrent = %d, want 1", year.IsCurrent)
		}
		old, err := repo.GetYearByID(ctx, y2024.ID)
		if err != nil {
			t.Fatalf("GetYearByID() failed: %v", err)
		}
		if old.IsCurrent != 0 {
			t.Errorf("old year still flagged current")
		}
	})

	t.Run("set current clears every other flag", func(t *testing.T) {
		year, err := repo.SetCurrentYear(ctx, y2025.ID)
		if err != nil {
			t.Fatalf("SetCurrentYear() failed: %v", err)
		}
		if year.IsCurrent != 1 {
			t.Errorf("SetCurrentYear() isCurrent = %d, want 1", year.IsCurrent)
		}
		var count int
		if err = db.Get(&count, `SELECT COUNT(*) FROM system_academic_years WHERE is_current = 1`); err != nil {
			t.Fatalf("counting current years failed: %v", err)
		}
		if count != 1 {
			t.Errorf("current years = %d, want 1", count)
		}
	})

	t.Run("set current on unknown year", func(t *testing.T) {
		if _, err := repo.SetCurrentYear(ctx, 9999); !core.IsNotFound(err) {
			t.Fatalf("SetCurrentYear() error = %v, want not found", err)
		}
	})

	t.Run("query all orders by start year descending", func(t *testing.T) {
		years, err := repo.QueryAllYears(ctx)
		if err != nil {
			t.Fatalf("QueryAllYears() failed: %v", err)
		}
		for i := 1; i < len(years); i++ {
			if years[i-1].StartYear < years[i].StartYear {
				t.Fatalf("QueryAllYears() out of order: %v", years)
			}
		}
	})
}

func TestAcademicYearRepositoryDeleteYear(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	yearRepo := database.NewAcademicYearRepository(db)
	studentRepo := database.NewStudentRepository(db)
	schoolRepo := database.NewSchoolRepository(db)

	year := testutil.CreateYear(t, yearRepo, 2025, true)
	sch := testutil.CreateSchool(t, schoolRepo, "North High")
	st := testutil.CreateStudent(t, studentRepo, sch.ID, "Omar Khalid", "Primary - Third",
		student.ScoreDoc{"math": {}})

	if err := studentRepo.UpsertGrade(ctx, student.StudentGrade{
		StudentID: st.ID, AcademicYearID: year.ID, SubjectName: "math", Final: 90,
	}); err != nil {
		t.Fatalf("UpsertGrade() failed: %v", err)
	}
	if err := studentRepo.UpsertAttendance(ctx, student.StudentAttendance{
		StudentID: st.ID, AcademicYearID: year.ID,
		AttendanceDate: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), Status: "present",
	}); err != nil {
		t.Fatalf("UpsertAttendance() failed: %v", err)
	}

	if err := yearRepo.DeleteYear(ctx, year.ID); err != nil {
		t.Fatalf("DeleteYear() failed: %v", err)
	}

	// the year and its dependent rows are gone, the student survives
	if _, err := yearRepo.GetYearByID(ctx, year.ID); !core.IsNotFound(err) {
		t.Errorf("GetYearByID() error = %v, want not found", err)
	}
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM student_grades`); err != nil || count != 0 {
		t.Errorf("grade rows left = %d (err %v), want 0", count, err)
	}
	if err := db.Get(&count, `SELECT COUNT(*) FROM student_attendance`); err != nil || count != 0 {
		t.Errorf("attendance rows left = %d (err %v), want 0", count, err)
	}
	if _, err := studentRepo.GetStudentByID(ctx, st.ID); err != nil {
		t.Errorf("GetStudentByID() failed after year delete: %v", err)
	}

	t.Run("unknown year", func(t *testing.T) {
		if err := yearRepo.DeleteYear(ctx, 9999); !core.IsNotFound(err) {
			t.Fatalf("DeleteYear() error = %v, want not found", err)
		}
	})
}

func TestStudentRepositoryPromoteStudent(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	yearRepo := database.NewAcademicYearRepository(db)
	studentRepo := database.NewStudentRepository(db)
	schoolRepo := database.NewSchoolRepository(db)

	year := testutil.CreateYear(t, yearRepo, 2025, true)
	sch := testutil.CreateSchool(t, schoolRepo, "North High")
	st := testutil.CreateStudent(t, studentRepo, sch.ID, "Omar Khalid", "Primary - Third",
		student.ScoreDoc{"math": {Final: 88}, "science": {}})

	// one subject already has real marks in the target year
	if err := studentRepo.UpsertGrade(ctx, student.StudentGrade{
		StudentID: st.ID, AcademicYearID: year.ID, SubjectName: "math", Month1: 50, Final: 88,
	}); err != nil {
		t.Fatalf("UpsertGrade() failed: %v", err)
	}

	promoted, err := studentRepo.PromoteStudent(ctx, st.ID, "Primary - Fourth", year.ID)
	if err != nil {
		t.Fatalf("PromoteStudent() failed: %v", err)
	}
	if promoted.Grade != "Primary - Fourth" {
		t.Errorf("PromoteStudent() grade = %v, want Primary - Fourth", promoted.Grade)
	}

	grades, err := studentRepo.QueryGradesByYear(ctx, st.ID, year.ID)
	if err != nil {
		t.Fatalf("QueryGradesByYear() failed: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("grade rows = %d, want 2", len(grades))
	}
	for _, g := range grades {
		switch g.SubjectName {
		case "math":
			// existing marks must survive the promotion
			if g.Month1 != 50 || g.Final != 88 {
				t.Errorf("math row overwritten: %+v", g)
			}
		case "science":
			if g.Month1 != 0 || g.Final != 0 {
				t.Errorf("science row not zeroed: %+v", g)
			}
		default:
			t.Errorf("unexpected subject %q", g.SubjectName)
		}
	}

	t.Run("promotion is idempotent on seeded rows", func(t *testing.T) {
		if _, err := studentRepo.PromoteStudent(ctx, st.ID, "Primary - Fifth", year.ID); err != nil {
			t.Fatalf("PromoteStudent() failed: %v", err)
		}
		grades, err := studentRepo.QueryGradesByYear(ctx, st.ID, year.ID)
		if err != nil {
			t.Fatalf("QueryGradesByYear() failed: %v", err)
		}
		if len(grades) != 2 {
			t.Errorf("grade rows = %d after second promotion, want 2", len(grades))
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		if _, err := studentRepo.PromoteStudent(ctx, 9999, "Primary - Fourth", year.ID); !core.IsNotFound(err) {
			t.Fatalf("PromoteStudent() error = %v, want not found", err)
		}
	})
}

func TestStudentRepositoryGetDefaultTargetYearID(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	yearRepo := database.NewAcademicYearRepository(db)
	studentRepo := database.NewStudentRepository(db)

	t.Run("no years at all", func(t *testing.T) {
		if _, err := studentRepo.GetDefaultTargetYearID(ctx); !core.IsNotFound(err) {
			t.Fatalf("GetDefaultTargetYearID() error = %v, want not found", err)
		}
	})

	old := testutil.CreateYear(t, yearRepo, 2023, false)
	latest := testutil.CreateYear(t, yearRepo, 2025, false)

	t.Run("no flag falls back to latest start year", func(t *testing.T) {
		id, err := studentRepo.GetDefaultTargetYearID(ctx)
		if err != nil {
			t.Fatalf("GetDefaultTargetYearID() failed: %v", err)
		}
		if id != latest.ID {
			t.Errorf("GetDefaultTargetYearID() = %d, want %d", id, latest.ID)
		}
	})

	t.Run("flagged year wins over latest", func(t *testing.T) {
		flagged, err := yearRepo.SetCurrentYear(ctx, old.ID)
		if err != nil {
			t.Fatalf("SetCurrentYear() failed: %v", err)
		}
		id, err := studentRepo.GetDefaultTargetYearID(ctx)
		if err != nil {
			t.Fatalf("GetDefaultTargetYearID() failed: %v", err)
		}
		if id != flagged.ID {
			t.Errorf("GetDefaultTargetYearID() = %d, want %d", id, flagged.ID)
		}
	})
}

func TestStudentRepositoryUpserts(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	yearRepo := database.NewAcademicYearRepository(db)
	studentRepo := database.NewStudentRepository(db)
	schoolRepo := database.NewSchoolRepository(db)

	year := testutil.CreateYear(t, yearRepo, 2025, true)
	sch := testutil.CreateSchool(t, schoolRepo, "North High")
	st := testutil.CreateStudent(t, studentRepo, sch.ID, "Omar Khalid", "Primary - Third", nil)

	t.Run("grade upsert updates in place", func(t *testing.T) {
		g := student.StudentGrade{StudentID: st.ID, AcademicYearID: year.ID, SubjectName: "math", Month1: 40}
		if err := studentRepo.UpsertGrade(ctx, g); err != nil {
			t.Fatalf("UpsertGrade() failed: %v", err)
		}
		g.Month1 = 45
		g.Final = 80
		if err := studentRepo.UpsertGrade(ctx, g); err != nil {
			t.Fatalf("UpsertGrade() failed: %v", err)
		}

		grades, err := studentRepo.QueryGradesByYear(ctx, st.ID, year.ID)
		if err != nil {
			t.Fatalf("QueryGradesByYear() failed: %v", err)
		}
		if len(grades) != 1 {
			t.Fatalf("grade rows = %d, want 1", len(grades))
		}
		if grades[0].Month1 != 45 || grades[0].Final != 80 {
			t.Errorf("grade row = %+v, want month1 45 final 80", grades[0])
		}
	})

	t.Run("attendance upsert updates in place", func(t *testing.T) {
		day := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)
		a := student.StudentAttendance{StudentID: st.ID, AcademicYearID: year.ID, AttendanceDate: day, Status: "present"}
		if err := studentRepo.UpsertAttendance(ctx, a); err != nil {
			t.Fatalf("UpsertAttendance() failed: %v", err)
		}
		a.Status = "absent"
		a.Notes = null.StringFrom("sick")
		if err := studentRepo.UpsertAttendance(ctx, a); err != nil {
			t.Fatalf("UpsertAttendance() failed: %v", err)
		}

		attendance, err := studentRepo.QueryAttendanceByYear(ctx, st.ID, year.ID)
		if err != nil {
			t.Fatalf("QueryAttendanceByYear() failed: %v", err)
		}
		if len(attendance) != 1 {
			t.Fatalf("attendance rows = %d, want 1", len(attendance))
		}
		if attendance[0].Status != "absent" || attendance[0].Notes.String != "sick" {
			t.Errorf("attendance row = %+v, want absent/sick", attendance[0])
		}
	})
}

func TestStudentRepositoryHistory(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	yearRepo := database.NewAcademicYearRepository(db)
	studentRepo := database.NewStudentRepository(db)
	schoolRepo := database.NewSchoolRepository(db)

	y2024 := testutil.CreateYear(t, yearRepo, 2024, false)
	y2025 := testutil.CreateYear(t, yearRepo, 2025, true)
	sch := testutil.CreateSchool(t, schoolRepo, "North High")
	st := testutil.CreateStudent(t, studentRepo, sch.ID, "Omar Khalid", "Primary - Fourth", nil)

	for _, g := range []student.StudentGrade{
		{StudentID: st.ID, AcademicYearID: y2024.ID, SubjectName: "math", Final: 70},
		{StudentID: st.ID, AcademicYearID: y2025.ID, SubjectName: "math", Final: 85},
	} {
		if err := studentRepo.UpsertGrade(ctx, g); err != nil {
			t.Fatalf("UpsertGrade() failed: %v", err)
		}
	}

	grades, err := studentRepo.QueryAllGrades(ctx, st.ID)
	if err != nil {
		t.Fatalf("QueryAllGrades() failed: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("history rows = %d, want 2", len(grades))
	}
	// most recent year first, with year metadata attached
	if grades[0].AcademicYearName != y2025.Name || grades[0].StartYear != 2025 {
		t.Errorf("history[0] = %+v, want %s", grades[0], y2025.Name)
	}
	if grades[1].AcademicYearName != y2024.Name {
		t.Errorf("history[1] = %+v, want %s", grades[1], y2024.Name)
	}
}

func TestSchoolRepositoryCascade(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	studentRepo := database.NewStudentRepository(db)
	schoolRepo := database.NewSchoolRepository(db)

	sch := testutil.CreateSchool(t, schoolRepo, "North High")
	st := testutil.CreateStudent(t, studentRepo, sch.ID, "Omar Khalid", "Primary - Third", nil)

	if err := schoolRepo.DeleteSchool(ctx, sch.ID); err != nil {
		t.Fatalf("DeleteSchool() failed: %v", err)
	}
	// students ride along on the school's foreign key
	if _, err := studentRepo.GetStudentByID(ctx, st.ID); !core.IsNotFound(err) {
		t.Errorf("GetStudentByID() error = %v, want not found", err)
	}
}
