// Package sqlitedriver registers the SQLite driver used for local and test
// stores. It replaces the built-in lower(), which only folds ASCII, so that
// case-insensitive search behaves as it does on PostgreSQL.
package sqlitedriver

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverName is the database/sql name the driver is registered under
const DriverName = "sqlite3_billing"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// Open returns a gorm dialector for dsn
func Open(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: DriverName, DSN: dsn})
}
