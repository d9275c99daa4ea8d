//go:build cgo_sqlite

package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/RefTax/contrib/sqlite-external"
)

// Driver selection for cgo_sqlite builds: the contrib package imports
// mattn/go-sqlite3 and reports how it registered.
const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage
)
