package academic

import (
	"github.com/go-playground/validator/v10"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	yearSpanTag  = "year_span"
	yearSpanText = "end year must be start year + 1"
)

// register custom validators
func init() {
	core.Validate.RegisterStructValidation(newAcademicYearStructValidation, NewAcademicYear{})
	core.RegisterCustomTranslation(yearSpanTag, yearSpanText)
}

// newAcademicYearStructValidation does NewAcademicYear's struct level validation
func newAcademicYearStructValidation(sl validator.StructLevel) {
	if ny, ok := sl.Current().Interface().(NewAcademicYear); ok {
		if ny.EndYear != ny.StartYear+1 {
			sl.ReportError(ny.EndYear, "end_year", "EndYear", yearSpanTag, "")
		}
	}
}

// Validate cleans and validates the creation payload.
func (ny *NewAcademicYear) Validate() error {
	ny.Name = core.CleanString(ny.Name)
	ny.StartDate = core.CleanString(ny.StartDate)
	ny.EndDate = core.CleanString(ny.EndDate)
	return core.Validate.Struct(ny)
}
