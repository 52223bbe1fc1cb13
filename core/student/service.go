package student

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("student not found")
	ErrStudentExists = core.NewConflictError("a student with the same name already exists in this grade")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentByCode(ctx context.Context, code string) (Student, error)
		QueryStudentsBySchool(ctx context.Context, schoolID int) ([]Student, error)
		CountStudentsByNameGrade(ctx context.Context, schoolID int, fullName, grade string) (int, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		// UpdateStudentDocs replaces the serialized working-copy documents.
		UpdateStudentDocs(ctx context.Context, id int, scores, attendance string) error
		DeleteStudent(ctx context.Context, id int) error

		// GetDefaultTargetYearID resolves the promotion target when the caller
		// supplies none: the current-flagged year, else the most recent by
		// start_year. core.IsNotFound when no years exist at all.
		GetDefaultTargetYearID(ctx context.Context) (int, error)
		// PromoteStudent updates the student's grade label in place and, when
		// yearID != 0, seeds a zeroed student_grades row for every subject in the
		// student's detailed_scores that has no row for (student, yearID, subject)
		// yet. Existing rows are never touched. Runs as one transaction with the
		// student row locked; returns the refreshed student.
		PromoteStudent(ctx context.Context, studentID int, newGrade string, yearID int) (Student, error)

		QueryGradesByYear(ctx context.Context, studentID, yearID int) ([]StudentGrade, error)
		// UpsertGrade inserts or updates keyed on (student, year, subject).
		UpsertGrade(ctx context.Context, g StudentGrade) error
		QueryAttendanceByYear(ctx context.Context, studentID, yearID int) ([]StudentAttendance, error)
		// UpsertAttendance inserts or updates keyed on (student, year, date).
		UpsertAttendance(ctx context.Context, a StudentAttendance) error

		QueryAllGrades(ctx context.Context, studentID int) ([]GradeWithYear, error)
		QueryAllAttendance(ctx context.Context, studentID int) ([]AttendanceWithYear, error)
	}

	Service struct {
		repo Repository
	}

	// FailedPromotion records one student that could not be promoted.
	FailedPromotion struct {
		ID     int    `json:"id"`
		Reason string `json:"reason"`
	}

	// PromotionResult is the bulk-promotion envelope. Partial success is the
	// contract: the envelope always reports, it never fails as a whole.
	PromotionResult struct {
		PromotedCount    int               `json:"promoted_count"`
		FailedCount      int               `json:"failed_count"`
		FailedPromotions []FailedPromotion `json:"failed_promotions"`
	}

	// YearGrades is the per-year grade view keyed by subject.
	YearGrades struct {
		Grades map[string]ScoreSet `json:"grades"`
		Raw    []StudentGrade      `json:"raw_grades"`
	}

	// YearAttendance is the per-year attendance view keyed by date.
	YearAttendance struct {
		Attendance map[string]AttendanceEntry `json:"attendance"`
		Raw        []StudentAttendance        `json:"raw_attendance"`
	}

	// History groups a student's grade and attendance rows by academic year.
	History struct {
		Student    Student                      `json:"student"`
		Grades     map[string]HistoryYear       `json:"grades"`
		Attendance map[string]YearAttendanceMap `json:"attendance"`
	}

	// HistoryYear is one academic year's subjects in the history view.
	HistoryYear struct {
		YearInfo YearInfo            `json:"year_info"`
		Subjects map[string]ScoreSet `json:"subjects"`
	}

	YearInfo struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		StartYear int    `json:"start_year"`
		EndYear   int    `json:"end_year"`
	}

	YearAttendanceMap map[string]AttendanceEntry
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a student in a school, rejecting duplicates by
// (name, grade) within the school and generating a unique student code.
func (svc *Service) Create(ctx context.Context, schoolID int, ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}

	count, err := svc.repo.CountStudentsByNameGrade(ctx, schoolID, ns.FullName, ns.Grade)
	if err != nil {
		return Student{}, err
	}
	if count > 0 {
		return Student{}, ErrStudentExists
	}

	st := Student{
		SchoolID:           schoolID,
		FullName:           ns.FullName,
		StudentCode:        GenerateStudentCode(),
		Grade:              ns.Grade,
		Room:               ns.Room,
		Branch:             null.NewString(ns.Branch, ns.Branch != ""),
		ParentContact:      null.NewString(ns.ParentContact, ns.ParentContact != ""),
		BloodType:          null.NewString(ns.BloodType, ns.BloodType != ""),
		ChronicDisease:     null.NewString(ns.ChronicDisease, ns.ChronicDisease != ""),
		RawDetailedScores:  null.StringFrom("{}"),
		RawDailyAttendance: null.StringFrom("{}"),
	}
	if ns.EnrollmentDate != "" {
		date, _ := core.ParseDate(ns.EnrollmentDate) // format already validated
		st.EnrollmentDate = null.TimeFrom(date)
	}
	st, err = svc.repo.CreateStudent(ctx, st)
	if err != nil {
		return Student{}, err
	}
	st.DecodeDocs()
	return st, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	st.DecodeDocs()
	return st, nil
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Student, error) {
	st, err := svc.repo.GetStudentByCode(ctx, core.CleanString(code))
	if err != nil {
		return Student{}, err
	}
	st.DecodeDocs()
	return st, nil
}

func (svc *Service) QueryBySchool(ctx context.Context, schoolID int) ([]Student, error) {
	students, err := svc.repo.QueryStudentsBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].DecodeDocs()
	}
	return students, nil
}

// Update edits a student in place. Empty payload fields keep their stored value.
func (svc *Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	if err := us.Validate(); err != nil {
		return Student{}, err
	}

	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	if us.FullName != "" {
		st.FullName = us.FullName
	}
	if us.Grade != "" {
		st.Grade = us.Grade
	}
	if us.Room != "" {
		st.Room = us.Room
	}
	if us.Branch != "" {
		st.Branch = null.StringFrom(us.Branch)
	}
	if us.EnrollmentDate != "" {
		date, _ := core.ParseDate(us.EnrollmentDate)
		st.EnrollmentDate = null.TimeFrom(date)
	}
	if us.ParentContact != "" {
		st.ParentContact = null.StringFrom(us.ParentContact)
	}
	if us.BloodType != "" {
		st.BloodType = null.StringFrom(us.BloodType)
	}
	if us.ChronicDisease != "" {
		st.ChronicDisease = null.StringFrom(us.ChronicDisease)
	}

	st, err = svc.repo.UpdateStudent(ctx, st)
	if err != nil {
		return Student{}, err
	}
	st.DecodeDocs()
	return st, nil
}

// UpdateDocs replaces the student's working-copy score/attendance documents.
func (svc *Service) UpdateDocs(ctx context.Context, id int, scores ScoreDoc, attendance AttendanceDoc) error {
	rawScores, err := EncodeDoc(scores)
	if err != nil {
		return err
	}
	rawAttendance, err := EncodeDoc(attendance)
	if err != nil {
		return err
	}
	return svc.repo.UpdateStudentDocs(ctx, id, rawScores, rawAttendance)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Promote moves a student to a new grade label. The target academic year is the
// caller-supplied id, else the current-flagged year, else the most recent year;
// with no years at all the grade still changes and no rows are seeded.
// Historical grade rows are never overwritten.
func (svc *Service) Promote(ctx context.Context, id int, ps PromoteStudent) (Student, error) {
	if err := ps.Validate(); err != nil {
		return Student{}, err
	}

	yearID := ps.NewAcademicYearID
	if yearID == 0 {
		var err error
		if yearID, err = svc.repo.GetDefaultTargetYearID(ctx); err != nil {
			if !core.IsNotFound(err) {
				return Student{}, err
			}
			yearID = 0
		}
	}

	st, err := svc.repo.PromoteStudent(ctx, id, ps.NewGrade, yearID)
	if err != nil {
		return Student{}, err
	}
	st.DecodeDocs()
	return st, nil
}

// PromoteMany promotes a batch, isolating per-student failures: the envelope
// always reports successes plus a list of {id, reason} failures.
func (svc *Service) PromoteMany(ctx context.Context, pm PromoteManyStudents) (PromotionResult, error) {
	if err := pm.Validate(); err != nil {
		return PromotionResult{}, err
	}

	res := PromotionResult{FailedPromotions: make([]FailedPromotion, 0)}
	for _, id := range pm.StudentIDs {
		if _, err := svc.Promote(ctx, id, PromoteStudent{
			NewGrade:          pm.NewGrade,
			NewAcademicYearID: pm.NewAcademicYearID,
		}); err != nil {
			res.FailedPromotions = append(res.FailedPromotions, FailedPromotion{ID: id, Reason: err.Error()})
			continue
		}
		res.PromotedCount++
	}
	res.FailedCount = len(res.FailedPromotions)
	return res, nil
}

// GradesByYear returns a student's grade rows for one year, keyed by subject.
func (svc *Service) GradesByYear(ctx context.Context, studentID, yearID int) (YearGrades, error) {
	rows, err := svc.repo.QueryGradesByYear(ctx, studentID, yearID)
	if err != nil {
		return YearGrades{}, err
	}
	out := YearGrades{Grades: make(map[string]ScoreSet, len(rows)), Raw: rows}
	for _, g := range rows {
		out.Grades[g.SubjectName] = ScoreSet{
			Month1: g.Month1, Month2: g.Month2, Midterm: g.Midterm,
			Month3: g.Month3, Month4: g.Month4, Final: g.Final,
		}
	}
	return out, nil
}

// UpdateGradesByYear upserts grade rows keyed on (student, year, subject).
// Junk subject keys from the UI ("", "[object Object]") are skipped.
func (svc *Service) UpdateGradesByYear(ctx context.Context, studentID, yearID int, grades map[string]ScoreSet) error {
	for subject, scores := range grades {
		if subject == "" || subject == "[object Object]" {
			continue
		}
		if err := svc.repo.UpsertGrade(ctx, StudentGrade{
			StudentID:      studentID,
			AcademicYearID: yearID,
			SubjectName:    subject,
			Month1:         scores.Month1,
			Month2:         scores.Month2,
			Midterm:        scores.Midterm,
			Month3:         scores.Month3,
			Month4:         scores.Month4,
			Final:          scores.Final,
		}); err != nil {
			return err
		}
	}
	return nil
}

// AttendanceByYear returns a student's attendance rows for one year, keyed by date.
func (svc *Service) AttendanceByYear(ctx context.Context, studentID, yearID int) (YearAttendance, error) {
	rows, err := svc.repo.QueryAttendanceByYear(ctx, studentID, yearID)
	if err != nil {
		return YearAttendance{}, err
	}
	out := YearAttendance{Attendance: make(map[string]AttendanceEntry, len(rows)), Raw: rows}
	for _, a := range rows {
		out.Attendance[core.FormatDate(a.AttendanceDate)] = AttendanceEntry{Status: a.Status, Notes: a.Notes.String}
	}
	return out, nil
}

// UpdateAttendanceByYear upserts attendance rows keyed on (student, year, date).
// Unparseable date keys are skipped.
func (svc *Service) UpdateAttendanceByYear(ctx context.Context, studentID, yearID int, attendance map[string]AttendanceEntry) error {
	for date, entry := range attendance {
		day, err := core.ParseDate(date)
		if err != nil {
			continue
		}
		status := entry.Status
		if status == "" {
			status = "present"
		}
		if err := svc.repo.UpsertAttendance(ctx, StudentAttendance{
			StudentID:      studentID,
			AcademicYearID: yearID,
			AttendanceDate: day,
			Status:         status,
			Notes:          null.StringFrom(entry.Notes),
		}); err != nil {
			return err
		}
	}
	return nil
}

// AddAttendanceRecord upserts a single day's attendance.
func (svc *Service) AddAttendanceRecord(ctx context.Context, studentID, yearID int, date, status, notes string) error {
	day, err := core.ParseDate(date)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "a valid date is required"})
	}
	if status == "" {
		status = "present"
	}
	return svc.repo.UpsertAttendance(ctx, StudentAttendance{
		StudentID:      studentID,
		AcademicYearID: yearID,
		AttendanceDate: day,
		Status:         status,
		Notes:          null.StringFrom(notes),
	})
}

// GetHistory returns the student's complete academic history, grades and
// attendance grouped by academic year.
func (svc *Service) GetHistory(ctx context.Context, studentID int) (History, error) {
	st, err := svc.GetByID(ctx, studentID)
	if err != nil {
		return History{}, err
	}

	grades, err := svc.repo.QueryAllGrades(ctx, studentID)
	if err != nil {
		return History{}, err
	}
	attendance, err := svc.repo.QueryAllAttendance(ctx, studentID)
	if err != nil {
		return History{}, err
	}

	hist := History{
		Student:    st,
		Grades:     make(map[string]HistoryYear),
		Attendance: make(map[string]YearAttendanceMap),
	}
	for _, g := range grades {
		year, ok := hist.Grades[g.AcademicYearName]
		if !ok {
			year = HistoryYear{
				YearInfo: YearInfo{
					ID:        g.AcademicYearID,
					Name:      g.AcademicYearName,
					StartYear: g.StartYear,
					EndYear:   g.EndYear,
				},
				Subjects: make(map[string]ScoreSet),
			}
		}
		year.Subjects[g.SubjectName] = ScoreSet{
			Month1: g.Month1, Month2: g.Month2, Midterm: g.Midterm,
			Month3: g.Month3, Month4: g.Month4, Final: g.Final,
		}
		hist.Grades[g.AcademicYearName] = year
	}
	for _, a := range attendance {
		if _, ok := hist.Attendance[a.AcademicYearName]; !ok {
			hist.Attendance[a.AcademicYearName] = make(YearAttendanceMap)
		}
		hist.Attendance[a.AcademicYearName][core.FormatDate(a.AttendanceDate)] = AttendanceEntry{
			Status: a.Status,
			Notes:  a.Notes.String,
		}
	}
	return hist, nil
}
