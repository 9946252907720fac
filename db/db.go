// Package db ships the SQL schema of the earthquake store.
package db

import "embed"

// Migrations holds the sql-migrate plans below migrations/
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsRoot is the directory of the plans within Migrations
const MigrationsRoot = "migrations"
