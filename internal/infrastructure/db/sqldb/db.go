// Package sqldb implements the repository ports on PostgreSQL or SQLite
// through sqlx, with schema managed by embedded goose migrations.
package sqldb

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps a sqlx handle together with the dialect it talks.
type DB struct {
	*sqlx.DB
	driver string
	log    zerolog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string, log zerolog.Logger) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}

	log.Info().Str("driver", driver).Msg("connected to sql database")
	return &DB{DB: db, driver: driver, log: log}, nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN for path with foreign keys, WAL
// and a busy timeout enabled on every pooled connection.
func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_time_format=sqlite"
}

// Driver reports the dialect of the connection.
func (d *DB) Driver() string { return d.driver }

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Migrate applies all pending migrations.
func (d *DB) Migrate(ctx context.Context) error {
	dir, err := d.prepareGoose()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, d.DB.DB, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (d *DB) MigrateDown(ctx context.Context) error {
	dir, err := d.prepareGoose()
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, d.DB.DB, dir); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration and returns the
// current schema version.
func (d *DB) MigrationStatus(ctx context.Context) (int64, error) {
	dir, err := d.prepareGoose()
	if err != nil {
		return 0, err
	}
	if err := goose.StatusContext(ctx, d.DB.DB, dir); err != nil {
		return 0, fmt.Errorf("reading migration status: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, d.DB.DB)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (d *DB) prepareGoose() (string, error) {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: d.log})

	dialect, dir := "postgres", "migrations/postgres"
	if d.driver == DriverSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("setting dialect: %w", err)
	}
	return dir, nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Msgf(format, v...)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}

// dbTime normalizes timestamps before they are written so SQLite text
// values stay fixed-width and compare in time order.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
