package main

import (
	"context"
	"fmt"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if tag := user.CheckPasswordPolicy(pwd, usr.Name, usr.Email); tag != "" {
		return core.NewValidationError(fmt.Errorf("password: %s", user.PasswordPolicyText(tag)))
	}
	_, err = cli.usrSvc.AddOrUpdate(ctx, "", usr.Email, pwd, nil)
	return err
}
