package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/linkage"
	"github.com/trezcool/bolsa/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	out      io.Writer
	db       *sql.DB
	candRepo candidate.Repository
	stdRepo  student.Repository
}

// needsDB reports whether cmd reads or writes the database.
func needsDB(cmd string) bool {
	return cmd == "migrate" || cmd == "linkrecords"
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                              - run a goose command (up, down, status, create NAME sql...)")
	fmt.Fprintln(cli.out, "  linkrecords [-dry-run] [-pause 500ms] [-similarity] - repair candidate/student links")
	fmt.Fprintln(cli.out, "  hashpassword                                        - hash a password for the BOLSA_ADMINS setting")
	fmt.Fprintln(cli.out, "  token -email EMAIL                                  - issue an API token for a configured admin")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	linkCmd := flag.NewFlagSet("linkrecords", flag.ContinueOnError)
	linkCmd.SetOutput(cli.out)
	linkDryRun := linkCmd.Bool("dry-run", false, "Print the plan without writing anything.")
	linkPause := linkCmd.Duration("pause", cli.conf.Linkage.WritePause, "Pause between two writes.")
	linkSimilarity := linkCmd.Float64("similarity", cli.conf.Linkage.NameSimilarity, "Minimum name similarity, in (0, 1], to match a candidate and a student.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenEmail := tokenCmd.String("email", "", "The email of a configured admin account.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "linkrecords":
		if err := linkCmd.Parse(args[2:]); err != nil {
			return flagErr(err)
		}
		opts := linkage.Options{Pause: *linkPause, NameSimilarity: *linkSimilarity}
		return cli.linkRecords(context.Background(), *linkDryRun, opts)
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return flagErr(err)
		}
		if *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.issueToken(*tokenEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}

func flagErr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return errHelp
	}
	return err
}
