package main

import (
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/bolsa/apps/api/echo"
)

var errUnknownAdmin = errors.New("no such admin account")

// issueToken prints a signed API token for the configured admin with email.
func (cli *commandLine) issueToken(email string) error {
	adm, ok := cli.conf.Admin(email)
	if !ok {
		return errUnknownAdmin
	}
	token, err := echoapi.GenerateToken(cli.conf, echoapi.AdminClaims(cli.conf, adm.Email))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
