package user

import (
	"context"

	"github.com/madrasa-labs/madrasa/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrInvalidCredentials = core.NewValidationError(nil, core.FieldError{Field: "username", Error: "invalid credentials"})
)

type (
	Repository interface {
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

// Authenticate checks an admin's username/password pair. Unknown usernames and
// bad passwords are indistinguishable to the caller.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// SetPassword resets a user's password.
func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// AddAdmin creates (or repairs) an administrator identity. An existing user
// with the same username has its role corrected in place.
func (svc *Service) AddAdmin(ctx context.Context, uname, pwd string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)

	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		if !core.IsNotFound(err) {
			return User{}, err
		}
		usr = User{Username: uname, Role: RoleAdmin}
		if err = usr.SetPassword(pwd); err != nil {
			return User{}, err
		}
		return svc.repo.CreateUser(ctx, usr)
	}

	usr.Role = RoleAdmin
	if pwd != "" {
		if err = usr.SetPassword(pwd); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}
