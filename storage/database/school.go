package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

// trapNoRowsErr maps "no rows" to school.ErrNotFound
func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const schoolColumns = `id, name, code, study_type, level, gender_type, created_at, updated_at`

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	res, err := repo.db.ExecContext(ctx,
		`INSERT INTO schools (name, code, study_type, level, gender_type) VALUES (?, ?, ?, ?, ?)`,
		sch.Name, sch.Code, sch.StudyType, sch.Level, sch.GenderType)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return repo.GetSchoolByID(ctx, int(id))
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id int) (school.School, error) {
	var sch school.School
	err := repo.db.GetContext(ctx, &sch, `SELECT `+schoolColumns+` FROM schools WHERE id = ?`, id)
	if err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "getting school by id")
	}
	return sch, nil
}

func (repo schoolRepository) GetSchoolByCode(ctx context.Context, code string) (school.School, error) {
	var sch school.School
	err := repo.db.GetContext(ctx, &sch, `SELECT `+schoolColumns+` FROM schools WHERE code = ?`, code)
	if err != nil {
		return school.School{}, repo.trapNoRowsErr(err, "getting school by code")
	}
	return sch, nil
}

func (repo schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	schools := make([]school.School, 0)
	err := repo.db.SelectContext(ctx, &schools, `SELECT `+schoolColumns+` FROM schools ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	return schools, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE schools SET name = ?, study_type = ?, level = ?, gender_type = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sch.Name, sch.StudyType, sch.Level, sch.GenderType, sch.ID)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return repo.GetSchoolByID(ctx, sch.ID)
}

func (repo schoolRepository) DeleteSchool(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schools WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo schoolRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schools WHERE code = ?`, code)
	if err != nil {
		return false, errors.Wrap(err, "checking school code")
	}
	return count > 0, nil
}
