package main

import (
	"github.com/urfave/cli/v2"

	"github.com/signbank/signbank/storage/database"
)

var runMigrationsFunc = database.RunMigrations // mockable

func (cl *commandLine) migrateAction(c *cli.Context) error {
	if !c.Args().Present() {
		return usage(c)
	}
	return runMigrationsFunc(c.Context, cl.db, cl.logger, c.Args().First(), c.Args().Tail()...)
}
