package school

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/madrasa-labs/madrasa/core"
)

// mockRepository keeps schools in memory for service tests.
type mockRepository struct {
	schools []School
	nextID  int

	// collisions makes CodeExists report that many false positives first.
	collisions int
}

func newMockRepository() *mockRepository {
	return &mockRepository{nextID: 1}
}

func (repo *mockRepository) CreateSchool(_ context.Context, sch School) (School, error) {
	sch.ID = repo.nextID
	repo.nextID++
	repo.schools = append(repo.schools, sch)
	return sch, nil
}

func (repo *mockRepository) GetSchoolByID(_ context.Context, id int) (School, error) {
	for _, sch := range repo.schools {
		if sch.ID == id {
			return sch, nil
		}
	}
	return School{}, ErrNotFound
}

func (repo *mockRepository) GetSchoolByCode(_ context.Context, code string) (School, error) {
	for _, sch := range repo.schools {
		if sch.Code == code {
			return sch, nil
		}
	}
	return School{}, ErrNotFound
}

func (repo *mockRepository) QueryAllSchools(_ context.Context) ([]School, error) {
	out := make([]School, len(repo.schools))
	copy(out, repo.schools)
	return out, nil
}

func (repo *mockRepository) UpdateSchool(ctx context.Context, sch School) (School, error) {
	for i := range repo.schools {
		if repo.schools[i].ID == sch.ID {
			repo.schools[i] = sch
			return sch, nil
		}
	}
	return School{}, ErrNotFound
}

func (repo *mockRepository) DeleteSchool(_ context.Context, id int) error {
	for i := range repo.schools {
		if repo.schools[i].ID == id {
			repo.schools = append(repo.schools[:i], repo.schools[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (repo *mockRepository) CodeExists(_ context.Context, code string) (bool, error) {
	if repo.collisions > 0 {
		repo.collisions--
		return true, nil
	}
	for _, sch := range repo.schools {
		if sch.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		svc := NewService(newMockRepository())

		_, err := svc.Create(ctx, NewSchool{Name: "Lakeside High"})
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			t.Fatalf("Create() error = %v, want validator.ValidationErrors", err)
		}
		if len(vErrs) != 3 {
			t.Errorf("Create() validation errors = %v, want 3 failures", vErrs)
		}
	})

	t.Run("generated code is unique", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewService(repo)

		sch, err := svc.Create(ctx, NewSchool{
			Name: "  Lakeside High  ", StudyType: "morning", Level: "secondary", GenderType: "mixed",
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if sch.Name != "Lakeside High" {
			t.Errorf("name = %q, want cleaned string", sch.Name)
		}
		if sch.Code == "" {
			t.Error("no code generated")
		}

		// a code collision forces a retry
		repo.collisions = 2
		other, err := svc.Create(ctx, NewSchool{
			Name: "Hillcrest Academy", StudyType: "evening", Level: "primary", GenderType: "boys",
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if other.Code == "" || other.Code == sch.Code {
			t.Errorf("code = %q, want fresh unique code", other.Code)
		}
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewService(repo)

	sch, err := repo.CreateSchool(ctx, School{
		Name: "Lakeside High", Code: "SCH123", StudyType: "morning", Level: "secondary", GenderType: "mixed",
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, 12345, UpdateSchool{Name: "X"})
		if !core.IsNotFound(err) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("zero-value fields are kept", func(t *testing.T) {
		updated, err := svc.Update(ctx, sch.ID, UpdateSchool{Name: "Lakeside Renamed", Level: "primary"})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if updated.Name != "Lakeside Renamed" || updated.Level != "primary" {
			t.Errorf("updated = %+v", updated)
		}
		if updated.StudyType != sch.StudyType || updated.GenderType != sch.GenderType || updated.Code != sch.Code {
			t.Errorf("untouched fields changed: %+v", updated)
		}
	})
}
