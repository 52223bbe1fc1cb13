package main

import (
	"context"
	"testing"

	"github.com/madrasa-labs/madrasa/core"
	"github.com/madrasa-labs/madrasa/core/user"
	"github.com/madrasa-labs/madrasa/storage/database"
	testutil "github.com/madrasa-labs/madrasa/tests"
)

var usrSvc *user.Service

func setup(t *testing.T) *commandLine {
	// set up DB & services
	db := testutil.PrepareDB(t)
	usrSvc = user.NewService(database.NewUserRepository(db))

	// start CLI
	return &commandLine{
		db: db,
		conf: &core.Config{
			Database: core.DatabaseConfig{
				AdminUsername: "admin",
				AdminPassword: "admin123",
			},
		},
		usrSvc: usrSvc,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	// the schema is already applied; a rerun must be a no-op
	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	usr, err := usrSvc.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Errorf("seeded user role = %s, want %s", usr.Role, user.RoleAdmin)
	}
	if err = usr.CheckPassword("admin123"); err != nil {
		t.Error("seeded admin password does not match")
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"createadmin", "-username", "boss"}, wantErr: errHelp},
		{name: "new admin", args: []string{"createadmin", "-username", "boss"}, pwd: "s3cret"},
		{name: "existing admin is repaired", args: []string{"createadmin", "-username", "boss"}, pwd: "n3w-s3cret"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				usr, err := usrSvc.GetByUsername(context.Background(), "boss")
				if err != nil {
					t.Fatalf("GetByUsername() failed: %v", err)
				}
				if !usr.IsAdmin() {
					t.Errorf("role = %s, want %s", usr.Role, user.RoleAdmin)
				}
				if err = usr.CheckPassword(tt.pwd); err != nil {
					t.Error("failed to set new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	if _, err := usrSvc.AddAdmin(context.Background(), "awe", "mdr"); err != nil {
		t.Fatalf("AddAdmin() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "awe"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", "awe"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				usr, err := usrSvc.GetByUsername(context.Background(), "awe")
				if err != nil {
					t.Fatalf("GetByUsername() failed: %v", err)
				}
				if err = usr.CheckPassword(tt.pwd); err != nil {
					t.Error("failed to update new password")
				}
			} else if tt.wantErr == nil {
				t.Errorf("cli.run() unexpected error = %v", err)
			} else if !core.IsNotFound(err) && err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
