package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects one registration per NNNN_name.go file in this package.
var Migrations = migrate.NewMigrations()
