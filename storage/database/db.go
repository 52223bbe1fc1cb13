package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/madrasa-labs/madrasa/core"
)

// DB is a live connection pool bound to the dialect it was opened with.
// The engine is decided once at open time and never changes afterwards.
type DB struct {
	*sqlx.DB
	dialect Dialect
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Open connects to the primary MySQL backend, falling back to the embedded
// SQLite engine when MySQL cannot be reached. The fallback decision is made
// here, once per process; it is never re-evaluated per call.
func Open(conf *core.Config, logger core.Logger) (*DB, error) {
	db, myErr := open(mysqlDialect{}, conf)
	if myErr == nil {
		logger.Info(fmt.Sprintf("using MySQL database %q on %s:%d", conf.Database.Name, conf.Database.Host, conf.Database.Port))
		return db, nil
	}
	logger.Warn(fmt.Sprintf("MySQL connection failed: %v", myErr))
	logger.Warn(fmt.Sprintf("falling back to SQLite: %s", conf.Database.SQLitePath))

	db, liteErr := open(sqliteDialect{}, conf)
	if liteErr == nil {
		return db, nil
	}
	return nil, core.NewBackendUnavailableError(
		fmt.Sprintf("no database backend available (mysql: %v; sqlite: %v)", myErr, liteErr))
}

// OpenSQLite connects straight to the embedded engine, skipping the MySQL
// attempt. Used by the test helpers.
func OpenSQLite(conf *core.Config) (*DB, error) {
	return open(sqliteDialect{}, conf)
}

func open(dialect Dialect, conf *core.Config) (*DB, error) {
	sqldb, err := sqlx.Open(dialect.DriverName(), dialect.DSN(conf.Database))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", dialect.Name())
	}
	sqldb.SetMaxOpenConns(conf.Database.PoolSize)
	sqldb.SetConnMaxLifetime(conf.Database.ConnMaxLifetime)

	if err = sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrapf(err, "pinging %s database", dialect.Name())
	}
	return &DB{DB: sqldb, dialect: dialect}, nil
}
