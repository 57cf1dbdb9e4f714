package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp  = errors.New("help provided")
	errNoSQL = errors.New("migrate requires a sqlite3 or postgres storage driver")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB // nil unless the storage driver is a SQL database
	censusSvc *census.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]           - run a goose command (up, down, status, ...) on the SQL storage")
	fmt.Fprintln(cli.out, "  export -format csv|xlsx [-out F] - export the submissions")
	fmt.Fprintln(cli.out, "  import -file FILE                - replace the submissions with the JSON list in FILE")
	fmt.Fprintln(cli.out, "  stats                            - print the dashboard summary")
	fmt.Fprintln(cli.out, "  hashpassword                     - print the bcrypt hash of a password (prompted)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFormat := exportCmd.String("format", "csv", "The export format: csv or xlsx.")
	exportOut := exportCmd.String("out", "", "The output file. Defaults to censo-escolar-<date>.<format>.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "A JSON file holding a list of submissions.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(*exportFormat, *exportOut)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importFile)
	case "stats":
		return cli.stats()
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
	default:
		cli.printUsage()
		return errHelp
	}
}
