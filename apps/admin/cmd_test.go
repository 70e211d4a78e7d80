package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/billing"
	"github.com/trezcool/kulliya/core/college"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
	emailsvc "github.com/trezcool/kulliya/services/email"
	logsvc "github.com/trezcool/kulliya/services/logger"
	inmemdb "github.com/trezcool/kulliya/storage/database/inmem"
)

func setup(t *testing.T) (*commandLine, *inmemdb.DB, *bytes.Buffer) {
	student.NowFunc = func() time.Time { return time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { student.NowFunc = time.Now })

	conf := core.NewConfig()
	conf.Students.SendWelcomeEmail = false
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)

	db := inmemdb.Open()
	db.AddCollege(college.College{ID: 1, Code: "ENG", NameEn: "Engineering", IsActive: true})

	usrSvc := user.NewService(inmemdb.NewUserRepository(db), conf)
	studentSvc := student.NewService(
		inmemdb.NewStudentRepository(db),
		inmemdb.NewCollegeRepository(db),
		usrSvc,
		billing.NewRetroactiveRecorder(nil, inmemdb.NewBillingRepository(db)),
		emailsvc.NewConsoleServiceMock(conf, logger),
		logger,
		conf,
	)

	out := new(bytes.Buffer)
	return &commandLine{usrSvc: usrSvc, studentSvc: studentSvc, out: out}, db, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if !strings.Contains(err.Error(), tt.wantErrStr) {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	origMigrate := migrateFunc
	t.Cleanup(func() { migrateFunc = origMigrate })
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _, _ := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"adduser", "-email", "owner@test.cd"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-email", "owner@test.cd"},
			extra: extra{pwd: "12345678"}, wantErrStr: "password",
		},
		{
			name: "invalid role", args: []string{"adduser", "-email", "owner@test.cd", "-roles", "admin:lol"},
			extra: extra{pwd: "Str0ng!pass"}, wantErr: user.ErrInvalidRole,
		},
		{name: "create", args: []string{"adduser", "-email", "owner@test.cd", "-name", "Owner"}, extra: extra{pwd: "Str0ng!pass"}},
		{
			name:  "update roles",
			args:  []string{"adduser", "-email", "owner@test.cd", "-roles", "admin:registrar, admin:admissions"},
			extra: extra{pwd: "An0ther!pass"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}

	usr, err := cli.usrSvc.Authenticate(context.Background(), "owner@test.cd", "An0ther!pass")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if usr.Name != "Owner" {
		t.Errorf("usr.Name = %q; want %q", usr.Name, "Owner")
	}
	if !usr.HasAnyRole(user.RoleAdminAdmissions) || usr.HasAnyRole(user.RoleAdminOwner) {
		t.Errorf("usr.Roles = %v", usr.Roles)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _, _ := setup(t)

	usr, err := cli.usrSvc.AddOrUpdate(context.Background(), "User", "awe@test.cd", "Old!passw0rd", []string{user.RoleAdminRegistrar})
	if err != nil {
		t.Fatalf("AddOrUpdate() failed: %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "N3w!password"}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-email", "awe@test.cd"}, extra: extra{pwd: "awe@test.cd1A!"}, wantErrStr: "password"},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: extra{pwd: "N3w!password"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}

	refreshed, err := cli.usrSvc.GetByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if err = refreshed.CheckPassword("N3w!password"); err != nil {
		t.Error("failed to update new password")
	}
	if !refreshed.HasAnyRole(user.RoleAdminRegistrar) {
		t.Errorf("roles were reset: %v", refreshed.Roles)
	}
}

func Test_commandLine_accept(t *testing.T) {
	cli, db, out := setup(t)

	collegeID, majorID := 1, 3
	app := db.AddApplication(student.Application{
		FirstName: "Amina",
		LastName:  "Yusuf",
		Email:     "amina@test.cd",
		CollegeID: &collegeID,
		MajorID:   &majorID,
	})

	tests := []cliTest{
		{name: "no args", args: []string{"accept"}, wantErr: errHelp},
		{name: "unknown application", args: []string{"accept", "-application", "99"}, wantErr: student.ErrApplicationNotFound},
		{name: "accept", args: []string{"accept", "-application", strconv.Itoa(app.ID)}},
		{name: "next id: no args", args: []string{"nextid"}, wantErr: errHelp},
		{name: "next id: unknown college", args: []string{"nextid", "-college", "2"}, wantErr: college.ErrNotFound},
		{name: "next id", args: []string{"nextid", "-college", "1"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, cli.run(args), tt)
		})
	}

	got := out.String()
	for _, want := range []string{`"student_id": "STU20240001"`, `"password": "TempSTU20240001@2024"`, "STU20240002\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}
