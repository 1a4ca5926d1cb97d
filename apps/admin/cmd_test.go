package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/trezcool/bolsa/apps/api/echo"
	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
	logsvc "github.com/trezcool/bolsa/services/logger"
	inmemdb "github.com/trezcool/bolsa/storage/database/inmem"
	testutil "github.com/trezcool/bolsa/tests"
)

const adminEmail = "admin@bolsa.test"

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	conf := core.NewConfig()
	conf.SecretKey = "cli-test-secret"
	conf.Linkage.WritePause = 0
	conf.Admins = []core.AdminAccount{{Email: adminEmail, PasswordHash: "$2a$04$unused"}}

	db := inmemdb.Open()
	out := new(bytes.Buffer)
	return &commandLine{
		conf:     conf,
		logger:   logsvc.NewMemoryLogger(),
		out:      out,
		candRepo: inmemdb.NewCandidateRepository(db),
		stdRepo:  inmemdb.NewStudentRepository(db),
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "token: no email", args: []string{"token"}, wantErr: errHelp},
		{name: "token: help flag", args: []string{"token", "-h"}, wantErr: errHelp},
		{name: "linkrecords: unknown flag", args: []string{"linkrecords", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			tt.check(t, cli.run(args))
			if tt.wantErr == errHelp && out.Len() == 0 {
				t.Error("cli.run() printed no usage")
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	origRun := gooseRunFunc
	defer func() { gooseRunFunc = origRun }()

	var gotDir string
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotDir = dir
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if _, err := fs.Stat(fsys, dir+"/00001_create_candidates_students.sql"); err != nil {
			return err
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "scholarship", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	if gotDir != "migrations" {
		t.Errorf("gooseRunFunc() dir = %q; want migrations", gotDir)
	}
}

func Test_commandLine_linkRecords(t *testing.T) {
	ctx := context.Background()
	cli, out := setup(t)

	std := testutil.CreateStudent(t, cli.stdRepo, "Bruno Cossa", "", student.CohortTuition, "")
	cand := testutil.CreateCandidate(t, cli.candRepo, "Bruno Cossa", "", candidate.StatusEnrolled, std.ID)
	testutil.CreateCandidate(t, cli.candRepo, "Helena Zunguze", "", candidate.StatusEnrolled, "")

	t.Run("dry run writes nothing", func(t *testing.T) {
		out.Reset()
		if err := cli.run([]string{"admin", "linkrecords", "-dry-run"}); err != nil {
			t.Fatalf("cli.run() error = %v", err)
		}
		printed := out.String()
		for _, want := range []string{"scanned 2 candidates and 1 students", "student_back_reference", "unmatched"} {
			if !strings.Contains(printed, want) {
				t.Errorf("output %q does not contain %q", printed, want)
			}
		}
		if strings.Contains(printed, "applied") {
			t.Errorf("dry run applied fixes: %q", printed)
		}

		refreshed, err := cli.stdRepo.GetStudentByID(ctx, std.ID)
		if err != nil {
			t.Fatalf("GetStudentByID() error = %v", err)
		}
		if refreshed.HasCandidate() {
			t.Error("dry run linked the student")
		}
	})

	t.Run("apply", func(t *testing.T) {
		out.Reset()
		if err := cli.run([]string{"admin", "linkrecords", "-pause", "0s", "-similarity", "0.8"}); err != nil {
			t.Fatalf("cli.run() error = %v", err)
		}
		if !strings.Contains(out.String(), "applied 1/1 fixes (1 writes, 0 failed)") {
			t.Errorf("unexpected output %q", out.String())
		}

		refreshed, err := cli.stdRepo.GetStudentByID(ctx, std.ID)
		if err != nil {
			t.Fatalf("GetStudentByID() error = %v", err)
		}
		if refreshed.CandidateID.String != cand.ID {
			t.Errorf("student.CandidateID = %q; want %q", refreshed.CandidateID.String, cand.ID)
		}
	})

	t.Run("nothing left to fix", func(t *testing.T) {
		out.Reset()
		if err := cli.run([]string{"admin", "linkrecords"}); err != nil {
			t.Fatalf("cli.run() error = %v", err)
		}
		if !strings.Contains(out.String(), "nothing to fix") {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}

func Test_commandLine_hashPassword(t *testing.T) {
	cli, out := setup(t)
	origReadPassword := readPasswordFunc
	defer func() { readPasswordFunc = origReadPassword }()

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no password", args: []string{"hashpassword"}, wantErr: errHelp},
		{name: "hash", args: []string{"hashpassword"}, extra: extra{pwd: "correct-horse-battery"}},
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
			out.Reset()
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			hash := lines[len(lines)-1]
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(tt.extra.(extra).pwd)) != nil {
				t.Errorf("printed hash %q does not match the password", hash)
			}
		})
	}
}

func Test_commandLine_issueToken(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "unknown admin", args: []string{"token", "-email", "lol@bolsa.test"}, wantErr: errUnknownAdmin},
		{name: "issue", args: []string{"token", "-email", " ADMIN@bolsa.test "}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}

			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cli.conf.SecretKey), nil
			})
			if err != nil {
				t.Fatalf("jwt.ParseWithClaims() error = %v", err)
			}
			if claims.Email != adminEmail {
				t.Errorf("claims.Email = %q; want %q", claims.Email, adminEmail)
			}
		})
	}
}
