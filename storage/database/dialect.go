package database

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core"
)

// Dialect abstracts the differences between the primary MySQL backend and the
// embedded SQLite fallback. All schema DDL is authored in MySQL form and passed
// through Rewrite before execution; both engines take "?" placeholders.
type Dialect interface {
	// Name identifies the engine in logs.
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// DSN builds the data source name from the database settings.
	DSN(conf core.DatabaseConfig) string

	// Rewrite translates a MySQL-form statement into the engine's own form.
	// The MySQL dialect returns the statement unchanged.
	Rewrite(query string) string

	// RowLockSuffix is appended to a SELECT that must lock the row for the
	// duration of the enclosing transaction. Empty where the engine locks the
	// whole database on write anyway.
	RowLockSuffix() string

	// IsDuplicateColumn reports whether err came from adding a column that
	// already exists.
	IsDuplicateColumn(err error) bool
}

type mysqlDialect struct{}

var _ Dialect = (*mysqlDialect)(nil) // interface compliance check

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(conf core.DatabaseConfig) string {
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", conf.Host, conf.Port)
	c.User = conf.User
	c.Passwd = conf.Password
	c.DBName = conf.Name
	c.ParseTime = true // scan DATE/TIMESTAMP columns into time.Time
	return c.FormatDSN()
}

func (mysqlDialect) Rewrite(query string) string { return query }
func (mysqlDialect) RowLockSuffix() string       { return " FOR UPDATE" }

func (mysqlDialect) IsDuplicateColumn(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(errors.Cause(err), &myErr) {
		return myErr.Number == 1060 // ER_DUP_FIELDNAME
	}
	return false
}

type sqliteDialect struct{}

var _ Dialect = (*sqliteDialect)(nil) // interface compliance check

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) DSN(conf core.DatabaseConfig) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", conf.SQLitePath)
}

// rewrites are applied in order; the AUTO_INCREMENT PRIMARY KEY form must be
// handled before the bare AUTO_INCREMENT one.
var sqliteRewrites = [...][2]string{
	{" JSON", " TEXT"},
	{"ENGINE=InnoDB DEFAULT CHARSET=utf8mb4", ""},
	{"ON UPDATE CURRENT_TIMESTAMP", ""},
	{"INT AUTO_INCREMENT PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{"INT AUTO_INCREMENT", "INTEGER"},
	{"INT NOT NULL", "INTEGER NOT NULL"},
}

func (sqliteDialect) Rewrite(query string) string {
	for _, r := range sqliteRewrites {
		query = strings.ReplaceAll(query, r[0], r[1])
	}
	return query
}

func (sqliteDialect) RowLockSuffix() string { return "" }

func (sqliteDialect) IsDuplicateColumn(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(errors.Cause(err), &liteErr) {
		return strings.Contains(liteErr.Error(), "duplicate column name")
	}
	return false
}
