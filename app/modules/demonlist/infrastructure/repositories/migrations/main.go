package demonlistmigrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the demon list schema migrations.
var Migrations = migrate.NewMigrations()
