package user

import (
	"context"
	"testing"

	"github.com/madrasa-labs/madrasa/core"
)

// mockRepository keeps users in memory for service tests.
type mockRepository struct {
	users  []User
	nextID int
}

func newMockRepository() *mockRepository {
	return &mockRepository{nextID: 1}
}

func (repo *mockRepository) GetUserByID(_ context.Context, id int) (User, error) {
	for _, usr := range repo.users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *mockRepository) GetUserByUsername(_ context.Context, username string) (User, error) {
	for _, usr := range repo.users {
		if usr.Username == username {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *mockRepository) CreateUser(_ context.Context, usr User) (User, error) {
	usr.ID = repo.nextID
	repo.nextID++
	repo.users = append(repo.users, usr)
	return usr, nil
}

func (repo *mockRepository) UpdateUser(_ context.Context, usr User) (User, error) {
	for i := range repo.users {
		if repo.users[i].ID == usr.ID {
			repo.users[i] = usr
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func TestServiceAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewService(repo)

	if _, err := svc.AddAdmin(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("AddAdmin() failed: %v", err)
	}

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "unknown username", uname: "ghost", pwd: "lol", wantErr: ErrInvalidCredentials},
		{name: "bad password", uname: "admin", pwd: "lol", wantErr: ErrInvalidCredentials},
		{name: "username is cleaned", uname: "  ADMIN  ", pwd: "admin123"},
		{name: "ok", uname: "admin", pwd: "admin123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.uname, tt.pwd)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && usr.Username != "admin" {
				t.Errorf("usr = %+v", usr)
			}
		})
	}
}

func TestServiceAddAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewService(repo)

	usr, err := svc.AddAdmin(ctx, "Boss", "s3cret")
	if err != nil {
		t.Fatalf("AddAdmin() failed: %v", err)
	}
	if usr.Username != "boss" || !usr.IsAdmin() {
		t.Errorf("usr = %+v", usr)
	}
	if err = usr.CheckPassword("s3cret"); err != nil {
		t.Error("password not set")
	}

	// a demoted user with the same username is repaired, not duplicated
	usr.Role = "school"
	if _, err = repo.UpdateUser(ctx, usr); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	repaired, err := svc.AddAdmin(ctx, "boss", "")
	if err != nil {
		t.Fatalf("AddAdmin() failed: %v", err)
	}
	if repaired.ID != usr.ID || !repaired.IsAdmin() {
		t.Errorf("repaired = %+v", repaired)
	}
	if err = repaired.CheckPassword("s3cret"); err != nil {
		t.Error("empty password should leave the hash untouched")
	}
	if len(repo.users) != 1 {
		t.Errorf("users = %d, want 1", len(repo.users))
	}
}

func TestServiceSetPassword(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewService(repo)

	if _, err := svc.AddAdmin(ctx, "boss", "old"); err != nil {
		t.Fatalf("AddAdmin() failed: %v", err)
	}

	if _, err := svc.SetPassword(ctx, "ghost", "new"); !core.IsNotFound(err) {
		t.Errorf("SetPassword() error = %v, want ErrNotFound", err)
	}

	usr, err := svc.SetPassword(ctx, "boss", "new")
	if err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err = usr.CheckPassword("new"); err != nil {
		t.Error("failed to update password")
	}
	if err = usr.CheckPassword("old"); err == nil {
		t.Error("old password still accepted")
	}
}
