// Package migrations holds the schema of the quiz bank and the result store.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
