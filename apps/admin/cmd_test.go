package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tkimaro/shule/core/user"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

func setup(t *testing.T) (*commandLine, user.Repository) {
	t.Helper()
	usrRepo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return &commandLine{usrRepo: usrRepo}, usrRepo
}

func createUser(t *testing.T, repo user.Repository, uname, email, pwd, role string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		FirstName: "Test",
		LastName:  uname,
		Activated: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var called bool
	migrateRunFunc = func(db *sqlx.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate did not run")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)

	usr := createUser(t, usrRepo, "awe", "awe@test.cd", "mdr", user.RoleStudent)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli, usrRepo := setup(t)

	existing := createUser(t, usrRepo, "kim", "kim@test.cd", "mdr", user.RoleTeacher)

	tests := []cliTest{
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "username but no email", args: []string{"addadmin", "-username", "boss"}, wantErr: errHelp},
		{name: "args but no password", args: []string{"addadmin", "-username", "boss", "-email", "boss@test.cd"}, wantErr: errHelp},
		{name: "creates admin", args: []string{"addadmin", "-username", "boss", "-email", "boss@test.cd"}, pwd: "s3cret"},
		{name: "promotes existing user", args: []string{"addadmin", "-username", existing.Username, "-email", existing.Email}, pwd: "s3cret"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				uname := args[3]
				usr, err := usrRepo.GetUserByUsername(context.Background(), uname)
				if err != nil {
					t.Fatalf("GetUserByUsername() failed, %v", err)
				}
				if !usr.IsAdmin() {
					t.Errorf("user %q is not admin", uname)
				}
				if !usr.Activated {
					t.Errorf("user %q is not activated", uname)
				}
				if cErr := usr.CheckPassword(tt.pwd); cErr != nil {
					t.Errorf("CheckPassword() failed, %v", cErr)
				}
			}
		})
	}
}
