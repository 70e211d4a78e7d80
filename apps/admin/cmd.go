package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/core/user"
	"github.com/trezcool/kulliya/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	usrSvc     *user.Service
	studentSvc *student.Service
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                    - run database migrations (up, down, status, redo...)")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-name NAME] [-roles R] - create or update a user; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                   - reset a user's password; the password is prompted")
	fmt.Fprintln(cli.out, "  accept -application ID [-password PWD]       - accept an application and create its student")
	fmt.Fprintln(cli.out, "  nextid -college ID                           - preview the next student ID of a college")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRoles := addUserCmd.String("roles", user.RoleAdminOwner, "Comma separated roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	acceptCmd := flag.NewFlagSet("accept", flag.ContinueOnError)
	acceptAppID := acceptCmd.Int("application", 0, "The application ID.")
	acceptPwd := acceptCmd.String("password", "", "The student's initial password (generated if empty).")

	nextIDCmd := flag.NewFlagSet("nextid", flag.ContinueOnError)
	nextIDCollege := nextIDCmd.Int("college", 0, "The college ID.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, acceptCmd, nextIDCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, splitRoles(*addUserRoles))
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "accept":
		if err := acceptCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *acceptAppID < 1 {
			acceptCmd.Usage()
			return errHelp
		}
		return cli.acceptApplication(*acceptAppID, *acceptPwd)
	case "nextid":
		if err := nextIDCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *nextIDCollege < 1 {
			nextIDCmd.Usage()
			return errHelp
		}
		return cli.nextStudentID(*nextIDCollege)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
