package main

import (
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	users      *user.Service
	cohorts    *cohort.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, version, up-to VERSION...)")
	fmt.Println("  adduser -email EMAIL -name NAME [-role ROLE] [-cohort ID] [-monitor] - create or update a user")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  seed - create the demo cohort & one account per role")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", "admin", "One of: "+strings.Join(roleNames(), ", "))
	addUserCohort := addUserCmd.String("cohort", "", "The student's cohort ID.")
	addUserMonitor := addUserCmd.Bool("monitor", false, "Make the student the monitor of its cohort.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		roles, err := parseRole(*addUserRole)
		if err != nil {
			return err
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newAccount{
			email:     *addUserEmail,
			name:      *addUserName,
			roles:     roles,
			cohortID:  *addUserCohort,
			isMonitor: *addUserMonitor,
		}, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "seed":
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			fmt.Println("Usage: seed (the accounts password will be prompted)")
			return errHelp
		}
		return cli.seed(pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// describe renders err for the terminal, with validation errors spelled out per field.
func (cli *commandLine) describe(err error) string {
	var flds []core.FieldError
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		flds = core.TranslateValidationErrors(e, cli.translator)
	case *core.ValidationError:
		flds = e.Fields
	}
	if len(flds) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(flds))
	for _, fld := range flds {
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return strings.Join(msgs, "; ")
}
