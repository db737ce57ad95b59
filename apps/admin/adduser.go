package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/trezcool/darasa/core/user"
)

var roleFlags = map[string][]string{
	"student":   {user.RoleStudent},
	"teacher":   {user.RoleTeacher},
	"admin":     {user.RoleAdmin},
	"principal": {user.RoleAdminPrincipal},
	"owner":     user.AllRoles,
}

func roleNames() []string {
	names := make([]string, 0, len(roleFlags))
	for name := range roleFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseRole(name string) ([]string, error) {
	roles, ok := roleFlags[name]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", name)
	}
	return roles, nil
}

type newAccount struct {
	email     string
	name      string
	roles     []string
	cohortID  string
	isMonitor bool
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(acc newAccount, pwd string) error {
	ctx := context.Background()

	usr, err := cli.users.GetByEmail(ctx, acc.email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{
			Name:            acc.name,
			Email:           acc.email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           acc.roles,
			CohortID:        acc.cohortID,
			IsMonitor:       acc.isMonitor,
		}
		if err = nu.Validate(cli.validate, cli.users); err != nil {
			return err
		}
		_, err = cli.users.Create(ctx, nu)
		return err
	}

	active := true
	uu := user.UpdateUser{
		Name:            acc.name,
		IsActive:        &active,
		Roles:           acc.roles,
		IsMonitor:       &acc.isMonitor,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if acc.cohortID != "" {
		uu.CohortID = &acc.cohortID
	}
	if err = uu.Validate(usr, cli.validate, cli.users); err != nil {
		return err
	}
	_, err = cli.users.Update(ctx, usr, uu)
	return err
}
