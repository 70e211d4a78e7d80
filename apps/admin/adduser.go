package main

import (
	"context"
	"fmt"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, roles []string) error {
	for _, role := range roles {
		if !user.IsValidRole(role) {
			return fmt.Errorf("%w: %q", user.ErrInvalidRole, role)
		}
	}
	if tag := user.CheckPasswordPolicy(pwd, name, email); tag != "" {
		return core.NewValidationError(fmt.Errorf("password: %s", user.PasswordPolicyText(tag)))
	}

	usr, err := cli.usrSvc.AddOrUpdate(context.Background(), name, email, pwd, roles)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s (%s) saved with roles %v\n", usr.Email, usr.ID, usr.Roles)
	return nil
}
