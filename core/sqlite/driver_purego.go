//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

// Default driver: the pure Go port, so snapshot databases work without
// CGO or cross-compilation headaches.
const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
