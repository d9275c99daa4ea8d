// Package sqlite picks the SQLite driver for the snapshot store. The
// default build uses the pure Go modernc.org/sqlite port; building with
// -tags cgo_sqlite (and CGO_ENABLED=1) switches to mattn/go-sqlite3 via
// contrib/sqlite-external. The registered driver name differs between the
// two, so callers must open databases through this package rather than
// sql.Open directly.
package sqlite

import (
	"database/sql"
	"fmt"
)

// DriverName returns the database/sql driver name of the selected
// implementation.
func DriverName() string {
	return driverName
}

// DriverType reports which implementation was compiled in: "purego" or
// "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO implementation is in use.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database through the selected driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens a SQLite database in read-only mode. The database
// must already exist; read-only handles never create files.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open(path + "?mode=ro")
}

// MustOpen is Open for initialization paths where a failure is fatal
// anyway, such as tests.
func MustOpen(dataSourceName string) *sql.DB {
	db, err := Open(dataSourceName)
	if err != nil {
		panic(fmt.Sprintf("sqlite: failed to open %s: %v", dataSourceName, err))
	}
	return db
}

// Info describes the compiled-in driver. The version command reports it.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the compiled-in driver description.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
