package academic

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	// errors
	ErrYearNotFound = core.NewNotFoundError("academic year not found")
	ErrYearExists   = core.NewConflictError("academic year already exists")
	ErrYearHasData  = core.NewDependencyError("failed to delete academic year due to related data")

	// mockable
	nowFunc = time.Now
)

type (
	Repository interface {
		GetYearByID(ctx context.Context, id int) (AcademicYear, error)
		GetYearByName(ctx context.Context, name string) (AcademicYear, error)
		// QueryAllYears returns all years ordered by start_year descending.
		QueryAllYears(ctx context.Context) ([]AcademicYear, error)
		// CreateYear inserts a year; when clearCurrent is set, the is_current flag
		// is first cleared on all other rows within the same transaction.
		CreateYear(ctx context.Context, year AcademicYear, clearCurrent bool) (AcademicYear, error)
		// SetCurrentYear clears the flag on all rows then sets it on the target,
		// in one transaction.
		SetCurrentYear(ctx context.Context, id int) (AcademicYear, error)
		// DeleteYear removes the year's dependent grade/attendance rows and the
		// year itself, in one transaction.
		DeleteYear(ctx context.Context, id int) error
		HasCurrentYear(ctx context.Context) (bool, error)
	}

	Service struct {
		repo Repository
	}

	// GeneratedYears is the bulk-generate envelope.
	GeneratedYears struct {
		AcademicYears []AcademicYear `json:"academic_years"`
		Count         int            `json:"count"`
	}

	// YearList is the list envelope; IsCurrent on every entry is computed from
	// the clock, not read from storage.
	YearList struct {
		AcademicYears   []AcademicYear `json:"academic_years"`
		CurrentYearName string         `json:"current_year_name"`
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveCurrent returns the academic year containing today, creating it with
// default dates if it does not exist yet. It never fails on missing data.
func (svc *Service) ResolveCurrent(ctx context.Context) (AcademicYear, error) {
	name, startYear, endYear := CurrentYearName(nowFunc())

	year, err := svc.repo.GetYearByName(ctx, name)
	if err == nil {
		return year, nil
	}
	if !core.IsNotFound(err) {
		return AcademicYear{}, err
	}

	return svc.repo.CreateYear(ctx, AcademicYear{
		Name:      name,
		StartYear: startYear,
		EndYear:   endYear,
		StartDate: null.TimeFrom(DefaultStartDate(startYear)),
		EndDate:   null.TimeFrom(DefaultEndDate(endYear)),
		IsCurrent: 1,
	}, true /* clearCurrent */)
}

// List returns all years, most recent first. The is_current flag on each entry
// is overridden with the date-computed value; the persisted flag is write-path
// legacy and is not trusted on reads.
func (svc *Service) List(ctx context.Context) (YearList, error) {
	currentName, _, _ := CurrentYearName(nowFunc())

	years, err := svc.repo.QueryAllYears(ctx)
	if err != nil {
		return YearList{}, err
	}
	for i := range years {
		if years[i].Name == currentName {
			years[i].IsCurrent = 1
		} else {
			years[i].IsCurrent = 0
		}
	}
	return YearList{AcademicYears: years, CurrentYearName: currentName}, nil
}

// Create adds a new academic year. Duplicate names are rejected before any
// write; requesting is_current clears the flag on all other rows first.
func (svc *Service) Create(ctx context.Context, ny NewAcademicYear) (AcademicYear, error) {
	if err := ny.Validate(); err != nil {
		return AcademicYear{}, err
	}

	if _, err := svc.repo.GetYearByName(ctx, ny.Name); err == nil {
		return AcademicYear{}, ErrYearExists
	} else if !core.IsNotFound(err) {
		return AcademicYear{}, err
	}

	startDate := DefaultStartDate(ny.StartYear)
	if ny.StartDate != "" {
		startDate, _ = core.ParseDate(ny.StartDate) // format already validated
	}
	endDate := DefaultEndDate(ny.EndYear)
	if ny.EndDate != "" {
		endDate, _ = core.ParseDate(ny.EndDate)
	}

	var isCurrent int
	if ny.IsCurrent {
		isCurrent = 1
	}

	return svc.repo.CreateYear(ctx, AcademicYear{
		Name:      ny.Name,
		StartYear: ny.StartYear,
		EndYear:   ny.EndYear,
		StartDate: null.TimeFrom(startDate),
		EndDate:   null.TimeFrom(endDate),
		IsCurrent: isCurrent,
	}, ny.IsCurrent)
}

// SetCurrent marks the given year as current, clearing the flag everywhere else.
func (svc *Service) SetCurrent(ctx context.Context, id int) (AcademicYear, error) {
	return svc.repo.SetCurrentYear(ctx, id)
}

// Delete removes a year along with its dependent grade and attendance rows.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteYear(ctx, id)
}

// Generate creates up to count sequential years starting from the computed
// current start year, skipping names that already exist. The first newly
// created year is marked current only if no row holds the flag yet.
func (svc *Service) Generate(ctx context.Context, count int) (GeneratedYears, error) {
	if count <= 0 {
		count = 5
	}

	_, currentStartYear, _ := CurrentYearName(nowFunc())

	hasCurrent, err := svc.repo.HasCurrentYear(ctx)
	if err != nil {
		return GeneratedYears{}, err
	}

	added := make([]AcademicYear, 0, count)
	for i := 0; i < count; i++ {
		startYear := currentStartYear + i
		endYear := startYear + 1
		name := YearName(startYear)

		if _, err := svc.repo.GetYearByName(ctx, name); err == nil {
			continue
		} else if !core.IsNotFound(err) {
			return GeneratedYears{}, err
		}

		var isCurrent int
		if len(added) == 0 && !hasCurrent {
			isCurrent = 1
		}

		year, err := svc.repo.CreateYear(ctx, AcademicYear{
			Name:      name,
			StartYear: startYear,
			EndYear:   endYear,
			StartDate: null.TimeFrom(DefaultStartDate(startYear)),
			EndDate:   null.TimeFrom(DefaultEndDate(endYear)),
			IsCurrent: isCurrent,
		}, false)
		if err != nil {
			return GeneratedYears{}, err
		}
		added = append(added, year)
	}

	return GeneratedYears{AcademicYears: added, Count: len(added)}, nil
}
