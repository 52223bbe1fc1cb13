package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core/academic"
	"github.com/madrasa-labs/madrasa/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps "no rows" to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const studentColumns = `id, school_id, full_name, student_code, grade, branch, room, enrollment_date,
	parent_contact, blood_type, chronic_disease, detailed_scores, daily_attendance, created_at, updated_at`

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`INSERT INTO students (school_id, full_name, student_code, grade, branch, room, enrollment_date,
		   parent_contact, blood_type, chronic_disease, detailed_scores, daily_attendance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SchoolID, st.FullName, st.StudentCode, st.Grade, st.Branch, st.Room, st.EnrollmentDate,
		st.ParentContact, st.BloodType, st.ChronicDisease, st.RawDetailedScores, st.RawDailyAttendance)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.GetStudentByID(ctx, int(id))
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var st student.Student
	err := repo.db.GetContext(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "getting student by id")
	}
	return st, nil
}

func (repo studentRepository) GetStudentByCode(ctx context.Context, code string) (student.Student, error) {
	var st student.Student
	err := repo.db.GetContext(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE student_code = ?`, code)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "getting student by code")
	}
	return st, nil
}

func (repo studentRepository) QueryStudentsBySchool(ctx context.Context, schoolID int) ([]student.Student, error) {
	students := make([]student.Student, 0)
	err := repo.db.SelectContext(ctx, &students,
		`SELECT `+studentColumns+` FROM students WHERE school_id = ? ORDER BY created_at DESC`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) CountStudentsByNameGrade(ctx context.Context, schoolID int, fullName, grade string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM students WHERE school_id = ? AND full_name = ? AND grade = ?`,
		schoolID, fullName, grade)
	if err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE students SET full_name = ?, grade = ?, branch = ?, room = ?, enrollment_date = ?,
		   parent_contact = ?, blood_type = ?, chronic_disease = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		st.FullName, st.Grade, st.Branch, st.Room, st.EnrollmentDate,
		st.ParentContact, st.BloodType, st.ChronicDisease, st.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return repo.GetStudentByID(ctx, st.ID)
}

func (repo studentRepository) UpdateStudentDocs(ctx context.Context, id int, scores, attendance string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET detailed_scores = ?, daily_attendance = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		scores, attendance, id)
	if err != nil {
		return errors.Wrap(err, "updating student documents")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) GetDefaultTargetYearID(ctx context.Context) (int, error) {
	var id int
	err := repo.db.GetContext(ctx, &id, `SELECT id FROM system_academic_years WHERE is_current = 1 LIMIT 1`)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, errors.Wrap(err, "getting current year")
	}

	err = repo.db.GetContext(ctx, &id, `SELECT id FROM system_academic_years ORDER BY start_year DESC LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, academic.ErrYearNotFound
		}
		return 0, errors.Wrap(err, "getting latest year")
	}
	return id, nil
}

// PromoteStudent changes the student's grade label and seeds a zeroed grade row
// per subject found in the student's score document, inside one transaction.
// Rows that already exist for (student, year, subject) are left untouched.
func (repo studentRepository) PromoteStudent(ctx context.Context, studentID int, newGrade string, yearID int) (student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	var st student.Student
	err = tx.GetContext(ctx, &st,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`+repo.db.dialect.RowLockSuffix(), studentID)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "locking student")
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE students SET grade = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, newGrade, studentID); err != nil {
		return student.Student{}, errors.Wrap(err, "updating student grade")
	}

	if yearID != 0 {
		if err = repo.seedGradeRows(ctx, tx, st, yearID); err != nil {
			return student.Student{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing tx")
	}
	return repo.GetStudentByID(ctx, studentID)
}

// seedGradeRows creates one zeroed row per subject in the student's score
// document that has no row in the target year yet.
func (repo studentRepository) seedGradeRows(ctx context.Context, tx *sqlx.Tx, st student.Student, yearID int) error {
	for subject := range student.DecodeScoreDoc(st.RawDetailedScores) {
		var count int
		err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM student_grades WHERE student_id = ? AND academic_year_id = ? AND subject_name = ?`,
			st.ID, yearID, subject)
		if err != nil {
			return errors.Wrap(err, "checking grade row")
		}
		if count > 0 {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_grades (student_id, academic_year_id, subject_name, month1, month2, midterm, month3, month4, final)
			 VALUES (?, ?, ?, 0, 0, 0, 0, 0, 0)`,
			st.ID, yearID, subject)
		if err != nil {
			return errors.Wrap(err, "seeding grade row")
		}
	}
	return nil
}

const gradeColumns = `id, student_id, academic_year_id, subject_name, month1, month2, midterm, month3, month4, final, created_at, updated_at`

func (repo studentRepository) QueryGradesByYear(ctx context.Context, studentID, yearID int) ([]student.StudentGrade, error) {
	grades := make([]student.StudentGrade, 0)
	err := repo.db.SelectContext(ctx, &grades,
		`SELECT `+gradeColumns+` FROM student_grades WHERE student_id = ? AND academic_year_id = ? ORDER BY subject_name`,
		studentID, yearID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo studentRepository) UpsertGrade(ctx context.Context, g student.StudentGrade) error {
	var id int
	err := repo.db.GetContext(ctx, &id,
		`SELECT id FROM student_grades WHERE student_id = ? AND academic_year_id = ? AND subject_name = ?`,
		g.StudentID, g.AcademicYearID, g.SubjectName)
	switch {
	case err == sql.ErrNoRows:
		_, err = repo.db.ExecContext(ctx,
			`INSERT INTO student_grades (student_id, academic_year_id, subject_name, month1, month2, midterm, month3, month4, final)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.StudentID, g.AcademicYearID, g.SubjectName, g.Month1, g.Month2, g.Midterm, g.Month3, g.Month4, g.Final)
		return errors.Wrap(err, "inserting grade")
	case err != nil:
		return errors.Wrap(err, "checking grade row")
	}

	_, err = repo.db.ExecContext(ctx,
		`UPDATE student_grades SET month1 = ?, month2 = ?, midterm = ?, month3 = ?, month4 = ?, final = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		g.Month1, g.Month2, g.Midterm, g.Month3, g.Month4, g.Final, id)
	return errors.Wrap(err, "updating grade")
}

const attendanceColumns = `id, student_id, academic_year_id, attendance_date, status, notes, created_at`

func (repo studentRepository) QueryAttendanceByYear(ctx context.Context, studentID, yearID int) ([]student.StudentAttendance, error) {
	attendance := make([]student.StudentAttendance, 0)
	err := repo.db.SelectContext(ctx, &attendance,
		`SELECT `+attendanceColumns+` FROM student_attendance WHERE student_id = ? AND academic_year_id = ? ORDER BY attendance_date`,
		studentID, yearID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return attendance, nil
}

func (repo studentRepository) UpsertAttendance(ctx context.Context, a student.StudentAttendance) error {
	var id int
	err := repo.db.GetContext(ctx, &id,
		`SELECT id FROM student_attendance WHERE student_id = ? AND academic_year_id = ? AND attendance_date = ?`,
		a.StudentID, a.AcademicYearID, a.AttendanceDate)
	switch {
	case err == sql.ErrNoRows:
		_, err = repo.db.ExecContext(ctx,
			`INSERT INTO student_attendance (student_id, academic_year_id, attendance_date, status, notes)
			 VALUES (?, ?, ?, ?, ?)`,
			a.StudentID, a.AcademicYearID, a.AttendanceDate, a.Status, a.Notes)
		return errors.Wrap(err, "inserting attendance")
	case err != nil:
		return errors.Wrap(err, "checking attendance row")
	}

	_, err = repo.db.ExecContext(ctx,
		`UPDATE student_attendance SET status = ?, notes = ? WHERE id = ?`, a.Status, a.Notes, id)
	return errors.Wrap(err, "updating attendance")
}

func (repo studentRepository) QueryAllGrades(ctx context.Context, studentID int) ([]student.GradeWithYear, error) {
	grades := make([]student.GradeWithYear, 0)
	err := repo.db.SelectContext(ctx, &grades,
		`SELECT sg.id, sg.student_id, sg.academic_year_id, sg.subject_name,
		   sg.month1, sg.month2, sg.midterm, sg.month3, sg.month4, sg.final,
		   sg.created_at, sg.updated_at,
		   sa.name AS academic_year_name, sa.start_year, sa.end_year
		 FROM student_grades sg
		 JOIN system_academic_years sa ON sa.id = sg.academic_year_id
		 WHERE sg.student_id = ?
		 ORDER BY sa.start_year DESC, sg.subject_name`,
		studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grade history")
	}
	return grades, nil
}

func (repo studentRepository) QueryAllAttendance(ctx context.Context, studentID int) ([]student.AttendanceWithYear, error) {
	attendance := make([]student.AttendanceWithYear, 0)
	err := repo.db.SelectContext(ctx, &attendance,
		`SELECT st.id, st.student_id, st.academic_year_id, st.attendance_date, st.status, st.notes, st.created_at,
		   sa.name AS academic_year_name, sa.start_year, sa.end_year
		 FROM student_attendance st
		 JOIN system_academic_years sa ON sa.id = st.academic_year_id
		 WHERE st.student_id = ?
		 ORDER BY sa.start_year DESC, st.attendance_date`,
		studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance history")
	}
	return attendance, nil
}
