package school

import (
	"context"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("school not found")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id int) (School, error)
		GetSchoolByCode(ctx context.Context, code string) (School, error)
		// QueryAllSchools returns all schools, most recently created first.
		QueryAllSchools(ctx context.Context) ([]School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		DeleteSchool(ctx context.Context, id int) error
		CodeExists(ctx context.Context, code string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// uniqueCode generates school codes until one is free.
func (svc *Service) uniqueCode(ctx context.Context) (string, error) {
	for {
		code := GenerateCode()
		exists, err := svc.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	ns.Name = core.CleanString(ns.Name)
	if err := core.Validate.Struct(ns); err != nil {
		return School{}, err
	}

	code, err := svc.uniqueCode(ctx)
	if err != nil {
		return School{}, err
	}
	return svc.repo.CreateSchool(ctx, School{
		Name:       ns.Name,
		Code:       code,
		StudyType:  ns.StudyType,
		Level:      ns.Level,
		GenderType: ns.GenderType,
	})
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (School, error) {
	return svc.repo.GetSchoolByCode(ctx, core.CleanString(code))
}

func (svc *Service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}

	if us.Name != "" {
		sch.Name = core.CleanString(us.Name)
	}
	if us.StudyType != "" {
		sch.StudyType = us.StudyType
	}
	if us.Level != "" {
		sch.Level = us.Level
	}
	if us.GenderType != "" {
		sch.GenderType = us.GenderType
	}
	return svc.repo.UpdateSchool(ctx, sch)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteSchool(ctx, id)
}
