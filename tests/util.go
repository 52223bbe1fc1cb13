package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/school"
	"github.com/madrasa-labs/madrasa/core/student"
	"github.com/madrasa-labs/madrasa/storage/database"
)

// PrepareDB opens a throwaway SQLite database with the full schema applied.
// The file lives in the test's temp dir and disappears with it.
func PrepareDB(t *testing.T) *database.DB {
	t.Helper()

	conf := &core.Config{
		Database: core.DatabaseConfig{
			SQLitePath:      filepath.Join(t.TempDir(), "test.db"),
			PoolSize:        2,
			ConnMaxLifetime: time.Minute,
			AdminUsername:   "admin",
			AdminPassword:   "admin123",
		},
	}

	db, err := database.OpenSQLite(conf)
	if err != nil {
		t.Fatalf("prepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db, conf); err != nil {
		t.Fatalf("prepareDB() failed: %v", err)
	}
	return db
}

// OpenDB opens a throwaway SQLite database for a whole test binary
// (from TestMain, where no *testing.T exists). Callers must Close it.
func OpenDB() *database.DB {
	dir, err := os.MkdirTemp("", "madrasa-test-*")
	if err != nil {
		panic(err)
	}

	conf := &core.Config{
		Database: core.DatabaseConfig{
			SQLitePath:      filepath.Join(dir, "test.db"),
			PoolSize:        2,
			ConnMaxLifetime: time.Minute,
			AdminUsername:   "admin",
			AdminPassword:   "admin123",
		},
	}

	db, err := database.OpenSQLite(conf)
	if err != nil {
		panic(err)
	}
	if err = database.Migrate(context.Background(), db, conf); err != nil {
		panic(err)
	}
	return db
}

// ResetDB empties every table except users, so the seeded admin survives.
func ResetDB(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"student_attendance", "student_grades", "students", "teachers",
		"subjects", "grade_levels", "academic_years", "system_academic_years", "schools",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("resetDB() failed: %v", err)
		}
	}
}

func CreateYear(t *testing.T, repo academic.Repository, startYear int, isCurrent bool) academic.AcademicYear {
	t.Helper()

	var flag int
	if isCurrent {
		flag = 1
	}
	year, err := repo.CreateYear(context.Background(), academic.AcademicYear{
		Name:      academic.YearName(startYear),
		StartYear: startYear,
		EndYear:   startYear + 1,
		StartDate: null.TimeFrom(academic.DefaultStartDate(startYear)),
		EndDate:   null.TimeFrom(academic.DefaultEndDate(startYear + 1)),
		IsCurrent: flag,
	}, isCurrent)
	if err != nil {
		t.Fatalf("createYear() failed: %v", err)
	}
	return year
}

func CreateSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()

	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:       name,
		Code:       school.GenerateCode(),
		StudyType:  "morning",
		Level:      "secondary",
		GenderType: "mixed",
	})
	if err != nil {
		t.Fatalf("createSchool() failed: %v", err)
	}
	return sch
}

func CreateStudent(t *testing.T, repo student.Repository, schoolID int, fullName, grade string, scores student.ScoreDoc) student.Student {
	t.Helper()

	rawScores := "{}"
	if scores != nil {
		var err error
		if rawScores, err = student.EncodeDoc(scores); err != nil {
			t.Fatalf("createStudent() failed: %v", err)
		}
	}
	st, err := repo.CreateStudent(context.Background(), student.Student{
		SchoolID:           schoolID,
		FullName:           fullName,
		StudentCode:        student.GenerateStudentCode(),
		Grade:              grade,
		Room:               "A",
		RawDetailedScores:  null.StringFrom(rawScores),
		RawDailyAttendance: null.StringFrom("{}"),
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}
