// Package sqliteexternal holds the optional CGO SQLite driver.
//
// Snapshot databases are served by modernc.org/sqlite in the default
// build, which keeps the binary pure Go and trivially cross-compilable.
// Reconciliation runs over large reference databases can instead link
// the C implementation:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite
//
// With the tag set, core/sqlite routes all database handles through the
// driver registered here. Nothing else in the tree imports mattn/go-sqlite3
// directly, so a default build carries no CGO requirement.
package sqliteexternal
