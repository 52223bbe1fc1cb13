package academic

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// AcademicYear is a system-wide school-calendar period running Sept 1 - June 30,
// named "{start}/{end}". It applies to all schools; management is centralized.
type AcademicYear struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartYear int       `db:"start_year" json:"start_year"`
	EndYear   int       `db:"end_year" json:"end_year"`
	StartDate null.Time `db:"start_date" json:"start_date"`
	EndDate   null.Time `db:"end_date" json:"end_date"`
	IsCurrent int       `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewAcademicYear is the creation payload.
type NewAcademicYear struct {
	Name      string `json:"name" validate:"required"`
	StartYear int    `json:"start_year" validate:"required"`
	EndYear   int    `json:"end_year" validate:"required"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	IsCurrent bool   `json:"is_current"`
}

// YearName formats an academic year name from its start year.
func YearName(startYear int) string {
	return fmt.Sprintf("%d/%d", startYear, startYear+1)
}

// DefaultStartDate is Sept 1 of the start year.
func DefaultStartDate(startYear int) time.Time {
	return time.Date(startYear, time.September, 1, 0, 0, 0, 0, time.UTC)
}

// DefaultEndDate is June 30 of the end year.
func DefaultEndDate(endYear int) time.Time {
	return time.Date(endYear, time.June, 30, 0, 0, 0, 0, time.UTC)
}

// CurrentYearName calculates the academic year containing t.
// The academic year starts in September and ends in June: September-December
// maps to {Y}/{Y+1}, January-August maps to {Y-1}/{Y}.
func CurrentYearName(t time.Time) (name string, startYear, endYear int) {
	year, month := t.Year(), t.Month()
	if month >= time.September {
		startYear = year
	} else {
		startYear = year - 1
	}
	endYear = startYear + 1
	return YearName(startYear), startYear, endYear
}
