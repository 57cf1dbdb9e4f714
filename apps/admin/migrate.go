package main

import (
	"github.com/trezcool/censo/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(cli.db, cli.conf.Storage.Driver, args[0], arguments...)
}
