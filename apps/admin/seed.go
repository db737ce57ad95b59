package main

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
)

var (
	seedCohort = cohort.NewCohort{
		Name:      "2024 春季中文班",
		StartDate: "2024-03-01",
		EndDate:   "2024-07-01",
	}

	seedAccounts = []newAccount{
		{email: "admin@test.com", name: "系统管理员", roles: []string{user.RoleAdmin}},
		{email: "faculty@test.com", name: "测试教师", roles: []string{user.RoleTeacher}},
		{email: "student1@test.com", name: "学生甲", roles: []string{user.RoleStudent}, isMonitor: true},
	}
)

// seed creates the demo cohort and one account per role, all sharing pwd.
// Existing cohort & accounts are left untouched.
func (cli *commandLine) seed(pwd string) error {
	ctx := context.Background()

	coh, err := cli.seedCohort(ctx)
	if err != nil {
		return err
	}

	for _, acc := range seedAccounts {
		if _, err = cli.users.GetByEmail(ctx, acc.email); err == nil {
			fmt.Printf("%s already exists, skipped\n", acc.email)
			continue
		} else if err != user.ErrNotFound {
			return err
		}

		if acc.roles[0] == user.RoleStudent {
			acc.cohortID = coh.ID
		}
		if err = cli.addUser(acc, pwd); err != nil {
			return err
		}
		fmt.Printf("%s created\n", acc.email)
	}
	return nil
}

func (cli *commandLine) seedCohort(ctx context.Context) (cohort.Cohort, error) {
	cohorts, err := cli.cohorts.QueryCohorts(ctx)
	if err != nil {
		return cohort.Cohort{}, err
	}
	for _, c := range cohorts {
		if c.Name == seedCohort.Name {
			return c, nil
		}
	}

	nc := seedCohort
	if err = nc.Validate(cli.validate); err != nil {
		return cohort.Cohort{}, err
	}
	return cli.cohorts.CreateCohort(ctx, nc)
}
