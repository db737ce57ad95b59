package main

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	uu := user.UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(usr, cli.validate, cli.users); err != nil {
		return err
	}
	_, err = cli.users.Update(ctx, usr, uu)
	return err
}
