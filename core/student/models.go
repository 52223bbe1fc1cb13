package student

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

type (
	// Student belongs to exactly one school. The embedded detailed_scores and
	// daily_attendance documents hold the student's current-year working copy,
	// independent of the per-year student_grades/student_attendance tables.
	Student struct {
		ID             int         `db:"id" json:"id"`
		SchoolID       int         `db:"school_id" json:"school_id"`
		FullName       string      `db:"full_name" json:"full_name"`
		StudentCode    string      `db:"student_code" json:"student_code"`
		Grade          string      `db:"grade" json:"grade"`
		Branch         null.String `db:"branch" json:"branch"`
		Room           string      `db:"room" json:"room"`
		EnrollmentDate null.Time   `db:"enrollment_date" json:"enrollment_date"`
		ParentContact  null.String `db:"parent_contact" json:"parent_contact"`
		BloodType      null.String `db:"blood_type" json:"blood_type"`
		ChronicDisease null.String `db:"chronic_disease" json:"chronic_disease"`

		RawDetailedScores  null.String `db:"detailed_scores" json:"-"`
		RawDailyAttendance null.String `db:"daily_attendance" json:"-"`

		DetailedScores  ScoreDoc      `db:"-" json:"detailed_scores"`
		DailyAttendance AttendanceDoc `db:"-" json:"daily_attendance"`

		CreatedAt time.Time `db:"created_at" json:"created_at"`
		UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	}

	// ScoreSet holds the six period scores of one subject.
	ScoreSet struct {
		Month1  int `json:"month1"`
		Month2  int `json:"month2"`
		Midterm int `json:"midterm"`
		Month3  int `json:"month3"`
		Month4  int `json:"month4"`
		Final   int `json:"final"`
	}

	// ScoreDoc maps subject name to its period scores.
	ScoreDoc map[string]ScoreSet

	// AttendanceEntry is one day's attendance in the working-copy document.
	AttendanceEntry struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}

	// AttendanceDoc maps "YYYY-MM-DD" dates to attendance entries.
	AttendanceDoc map[string]AttendanceEntry

	// StudentGrade is one row per (student, academic year, subject).
	StudentGrade struct {
		ID             int       `db:"id" json:"id"`
		StudentID      int       `db:"student_id" json:"student_id"`
		AcademicYearID int       `db:"academic_year_id" json:"academic_year_id"`
		SubjectName    string    `db:"subject_name" json:"subject_name"`
		Month1         int       `db:"month1" json:"month1"`
		Month2         int       `db:"month2" json:"month2"`
		Midterm        int       `db:"midterm" json:"midterm"`
		Month3         int       `db:"month3" json:"month3"`
		Month4         int       `db:"month4" json:"month4"`
		Final          int       `db:"final" json:"final"`
		CreatedAt      time.Time `db:"created_at" json:"created_at"`
		UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	}

	// StudentAttendance is one row per (student, academic year, date).
	StudentAttendance struct {
		ID             int         `db:"id" json:"id"`
		StudentID      int         `db:"student_id" json:"student_id"`
		AcademicYearID int         `db:"academic_year_id" json:"academic_year_id"`
		AttendanceDate time.Time   `db:"attendance_date" json:"attendance_date"`
		Status         string      `db:"status" json:"status"`
		Notes          null.String `db:"notes" json:"notes"`
		CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	}

	// GradeWithYear joins a grade row with its academic year for history views.
	GradeWithYear struct {
		StudentGrade
		AcademicYearName string `db:"academic_year_name" json:"academic_year_name"`
		StartYear        int    `db:"start_year" json:"start_year"`
		EndYear          int    `db:"end_year" json:"end_year"`
	}

	// AttendanceWithYear joins an attendance row with its academic year.
	AttendanceWithYear struct {
		StudentAttendance
		AcademicYearName string `db:"academic_year_name" json:"academic_year_name"`
		StartYear        int    `db:"start_year" json:"start_year"`
		EndYear          int    `db:"end_year" json:"end_year"`
	}
)

// IsZero reports whether all six period scores are zero.
func (ss ScoreSet) IsZero() bool {
	return ss == ScoreSet{}
}

// DecodeScoreDoc decodes the serialized working-copy score document.
// An empty or malformed document decodes to the empty document; the fallback
// is a stated policy, decode failure on read is non-fatal.
func DecodeScoreDoc(raw null.String) ScoreDoc {
	doc := ScoreDoc{}
	if !raw.Valid || raw.String == "" {
		return doc
	}
	if err := json.Unmarshal([]byte(raw.String), &doc); err != nil {
		return ScoreDoc{}
	}
	return doc
}

// DecodeAttendanceDoc decodes the serialized working-copy attendance document,
// with the same empty-document fallback as DecodeScoreDoc.
func DecodeAttendanceDoc(raw null.String) AttendanceDoc {
	doc := AttendanceDoc{}
	if !raw.Valid || raw.String == "" {
		return doc
	}
	if err := json.Unmarshal([]byte(raw.String), &doc); err != nil {
		return AttendanceDoc{}
	}
	return doc
}

// DecodeDocs fills the decoded document fields from their raw columns.
func (s *Student) DecodeDocs() {
	s.DetailedScores = DecodeScoreDoc(s.RawDetailedScores)
	s.DailyAttendance = DecodeAttendanceDoc(s.RawDailyAttendance)
}

// EncodeDoc serializes a document for storage as text.
func EncodeDoc(doc interface{}) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateStudentCode makes a unique-ish "STD-<ms-timestamp>-<hex>" code.
func GenerateStudentCode() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	ms := time.Now().UnixNano() / int64(time.Millisecond)
	return fmt.Sprintf("STD-%d-%s", ms, strings.ToUpper(hex.EncodeToString(buf)))
}
