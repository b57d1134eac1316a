package main

import (
	"github.com/tkimaro/shule/storage/database"
)

var migrateRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	return migrateRunFunc(cli.db)
}
