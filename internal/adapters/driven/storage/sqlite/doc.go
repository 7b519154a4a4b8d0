// Package sqlite keeps the signed-in session in ~/.ragdesk/data/session.db
// so it survives restarts and is shared by every ragdesk process.
//
// The driver is modernc.org/sqlite, which needs no cgo. The database runs
// in WAL mode and holds at most one session row; schema changes are the
// numbered files under migrations/.
package sqlite
