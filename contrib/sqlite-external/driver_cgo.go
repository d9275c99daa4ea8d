//go:build cgo_sqlite

// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) when the cgo_sqlite build tag is set.
// It exists so the optional CGO dependency stays out of the default
// build graph; core/sqlite selects it through these constants.
package sqliteexternal

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the name the driver registers with database/sql.
	DriverName = "sqlite3"

	// DriverType identifies this as the CGO implementation.
	DriverType = "cgo"

	// DriverPackage is the import path of the underlying driver.
	DriverPackage = "github.com/mattn/go-sqlite3"
)
