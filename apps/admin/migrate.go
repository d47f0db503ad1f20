package main

import (
	"github.com/WMS-GIETU/WorkshopMS/storage/database"
)

var (
	migrateUpFunc      = database.Migrate        // mockable
	migrateCommandFunc = database.MigrateCommand // mockable
)

func (cli *commandLine) migrate(args []string) error {
	switch args[0] {
	case "up":
		return migrateUpFunc(cli.db)
	default:
		return migrateCommandFunc(cli.db, args[0], args[1:]...)
	}
}
