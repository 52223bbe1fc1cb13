package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core/academic"
)

type academicYearRepository struct {
	db *DB
}

var _ academic.Repository = (*academicYearRepository)(nil) // interface compliance check

func NewAcademicYearRepository(db *DB) *academicYearRepository {
	return &academicYearRepository{db: db}
}

// trapNoRowsErr maps "no rows" to academic.ErrYearNotFound
func (repo academicYearRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return academic.ErrYearNotFound
	}
	return errors.Wrap(err, msg)
}

const yearColumns = `id, name, start_year, end_year, start_date, end_date, is_current, created_at, updated_at`

func (repo academicYearRepository) GetYearByID(ctx context.Context, id int) (academic.AcademicYear, error) {
	var year academic.AcademicYear
	err := repo.db.GetContext(ctx, &year, `SELECT `+yearColumns+` FROM system_academic_years WHERE id = ?`, id)
	if err != nil {
		return academic.AcademicYear{}, repo.trapNoRowsErr(err, "getting academic year by id")
	}
	return year, nil
}

func (repo academicYearRepository) GetYearByName(ctx context.Context, name string) (academic.AcademicYear, error) {
	var year academic.AcademicYear
	err := repo.db.GetContext(ctx, &year, `SELECT `+yearColumns+` FROM system_academic_years WHERE name = ?`, name)
	if err != nil {
		return academic.AcademicYear{}, repo.trapNoRowsErr(err, "getting academic year by name")
	}
	return year, nil
}

func (repo academicYearRepository) QueryAllYears(ctx context.Context) ([]academic.AcademicYear, error) {
	years := make([]academic.AcademicYear, 0)
	err := repo.db.SelectContext(ctx, &years,
		`SELECT `+yearColumns+` FROM system_academic_years ORDER BY start_year DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying academic years")
	}
	return years, nil
}

func (repo academicYearRepository) CreateYear(ctx context.Context, year academic.AcademicYear, clearCurrent bool) (academic.AcademicYear, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if clearCurrent {
		if _, err = tx.ExecContext(ctx, `UPDATE system_academic_years SET is_current = 0`); err != nil {
			return academic.AcademicYear{}, errors.Wrap(err, "clearing current flag")
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO system_academic_years (name, start_year, end_year, start_date, end_date, is_current)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		year.Name, year.StartYear, year.EndYear, year.StartDate, year.EndDate, year.IsCurrent)
	if err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}

	if err = tx.Commit(); err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "committing tx")
	}
	return repo.GetYearByID(ctx, int(id))
}

func (repo academicYearRepository) SetCurrentYear(ctx context.Context, id int) (academic.AcademicYear, error) {
	if _, err := repo.GetYearByID(ctx, id); err != nil {
		return academic.AcademicYear{}, err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `UPDATE system_academic_years SET is_current = 0`); err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "clearing current flag")
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE system_academic_years SET is_current = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "setting current flag")
	}

	if err = tx.Commit(); err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "committing tx")
	}
	return repo.GetYearByID(ctx, id)
}

func (repo academicYearRepository) DeleteYear(ctx context.Context, id int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	// dependent rows go first; FK enforcement differs between engines so the
	// deletes are always explicit
	if _, err = tx.ExecContext(ctx, `DELETE FROM student_grades WHERE academic_year_id = ?`, id); err != nil {
		return academic.ErrYearHasData
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM student_attendance WHERE academic_year_id = ?`, id); err != nil {
		return academic.ErrYearHasData
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM system_academic_years WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting academic year")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.ErrYearNotFound
	}

	return errors.Wrap(tx.Commit(), "committing tx")
}

func (repo academicYearRepository) HasCurrentYear(ctx context.Context) (bool, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM system_academic_years WHERE is_current = 1`)
	if err != nil {
		return false, errors.Wrap(err, "checking current year")
	}
	return count > 0, nil
}
