package student

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	gradeFormatTag  = "grade_format"
	gradeFormatText = "grade must be formatted as \"<educational level> - <grade name>\""

	bloodTypeTag  = "blood_type"
	bloodTypeText = "invalid blood type"

	validBloodTypes = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}
)

// register custom validators
func init() {
	_ = core.Validate.RegisterValidation(gradeFormatTag, gradeFormatValidation)
	core.RegisterCustomTranslation(gradeFormatTag, gradeFormatText)

	_ = core.Validate.RegisterValidation(bloodTypeTag, bloodTypeValidation)
	core.RegisterCustomTranslation(bloodTypeTag, bloodTypeText)
}

// Custom Validators

// gradeFormatValidation checks the compound "<educational level> - <grade name>" label.
func gradeFormatValidation(fl validator.FieldLevel) bool {
	parts := strings.Split(fl.Field().String(), " - ")
	if len(parts) < 2 {
		return false
	}
	return strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != ""
}

// bloodTypeValidation checks against the known blood types; empty is allowed.
func bloodTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	for _, bt := range validBloodTypes {
		if val == bt {
			return true
		}
	}
	return false
}

type (
	// NewStudent is the creation payload.
	NewStudent struct {
		FullName       string `json:"full_name" validate:"required"`
		Grade          string `json:"grade" validate:"required,grade_format"`
		Room           string `json:"room" validate:"required"`
		Branch         string `json:"branch"`
		EnrollmentDate string `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
		ParentContact  string `json:"parent_contact"`
		BloodType      string `json:"blood_type" validate:"blood_type"`
		ChronicDisease string `json:"chronic_disease"`
	}

	// UpdateStudent is the update payload; empty fields are left unchanged.
	UpdateStudent struct {
		FullName       string `json:"full_name"`
		Grade          string `json:"grade" validate:"omitempty,grade_format"`
		Room           string `json:"room"`
		Branch         string `json:"branch"`
		EnrollmentDate string `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
		ParentContact  string `json:"parent_contact"`
		BloodType      string `json:"blood_type" validate:"blood_type"`
		ChronicDisease string `json:"chronic_disease"`
	}

	// PromoteStudent moves one student to a new grade label, optionally into a
	// specific academic year.
	PromoteStudent struct {
		NewGrade          string `json:"new_grade" validate:"required"`
		NewAcademicYearID int    `json:"new_academic_year_id"`
	}

	// PromoteManyStudents applies the same promotion to a batch of students.
	PromoteManyStudents struct {
		StudentIDs        []int  `json:"student_ids" validate:"required,min=1"`
		NewGrade          string `json:"new_grade" validate:"required"`
		NewAcademicYearID int    `json:"new_academic_year_id"`
	}
)

func (ns *NewStudent) Validate() error {
	ns.FullName = core.CleanString(ns.FullName)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Room = core.CleanString(ns.Room)
	ns.BloodType = core.CleanString(ns.BloodType)
	return core.Validate.Struct(ns)
}

func (us *UpdateStudent) Validate() error {
	us.FullName = core.CleanString(us.FullName)
	us.Grade = core.CleanString(us.Grade)
	us.Room = core.CleanString(us.Room)
	us.BloodType = core.CleanString(us.BloodType)
	return core.Validate.Struct(us)
}

func (ps *PromoteStudent) Validate() error {
	ps.NewGrade = core.CleanString(ps.NewGrade)
	return core.Validate.Struct(ps)
}

func (pm *PromoteManyStudents) Validate() error {
	pm.NewGrade = core.CleanString(pm.NewGrade)
	return core.Validate.Struct(pm)
}
