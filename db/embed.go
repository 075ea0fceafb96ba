// Package db carries the embedded SQL migrations so the server binary is
// self-contained.
package db

import "embed"

// Migrations holds the goose migration files.
//
//go:embed migrations/*.sql
var Migrations embed.FS
