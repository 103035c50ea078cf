// Package db provide access to database for repositories.
package db

//
// db.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
	"gitlab.com/kabes/go-poddir/internal/aerr"
)

//go:embed "migrations/sqlite3/*.sql" "migrations/pgx/*.sql"
var embedMigrations embed.FS

const (
	sqliteConnMaxIdleTime = 30 * time.Second
	sqliteConnMaxLifetime = 60 * time.Second
	pgConnMaxIdleTime     = 300 * time.Second
	pgConnMaxLifetime     = 600 * time.Second
	maxIdleConns          = 1
	maxOpenConns          = 10
)

type Database struct {
	db     *sqlx.DB
	driver string

	queryDuration *prometheus.HistogramVec
}

func NewDatabaseI(_ do.Injector) (*Database, error) {
	return &Database{}, nil
}

func (r *Database) isSqlite() bool { return r.driver == "sqlite3" }

func (r *Database) Connect(ctx context.Context, driver, connstr string) error {
	r.driver = driver

	if r.isSqlite() {
		// sqlite connstr need some extra parameters
		prepared, err := prepareSqliteConnstr(connstr)
		if err != nil {
			return err
		}

		connstr = prepared
	}

	log.Ctx(ctx).Info().Msgf("connecting to %q %q", driver, connstr)

	db, err := sqlx.Open(driver, connstr)
	if err != nil {
		return aerr.Wrapf(err, "open database failed").WithTag(aerr.InternalError).WithMeta("connstr", connstr)
	}

	r.db = db
	r.setupPool()

	if err := r.onConnect(ctx, r.db); err != nil {
		return aerr.Wrapf(err, "call startup scripts error").WithTag(aerr.InternalError)
	}

	if err := r.db.PingContext(ctx); err != nil {
		return aerr.Wrapf(err, "ping database failed").WithTag(aerr.InternalError)
	}

	return nil
}

func (r *Database) setupPool() {
	if r.isSqlite() {
		// sqlite allow only one writer; single connection also keep
		// in-memory database alive and shared between goroutines
		r.db.SetMaxIdleConns(1)
		r.db.SetMaxOpenConns(1)
		r.db.SetConnMaxIdleTime(sqliteConnMaxIdleTime)
		r.db.SetConnMaxLifetime(sqliteConnMaxLifetime)

		return
	}

	r.db.SetMaxIdleConns(maxIdleConns)
	r.db.SetMaxOpenConns(maxOpenConns)
	r.db.SetConnMaxIdleTime(pgConnMaxIdleTime)
	r.db.SetConnMaxLifetime(pgConnMaxLifetime)
}

// RegisterMetrics register prometheus collectors for database; query duration
// histogram is registered only when `querytime`.
func RegisterMetrics(i do.Injector, querytime bool) {
	database := do.MustInvoke[*Database](i)

	// gather stats from database
	prometheus.DefaultRegisterer.MustRegister(collectors.NewDBStatsCollector(database.db.DB, "main"))

	if querytime {
		database.queryDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_query_duration_seconds",
				Help:    "Tracks the latencies for database query.",
				Buckets: []float64{0.1, 0.2, 0.5, 1, 2, 5},
			},
			[]string{"caller"},
		)

		prometheus.DefaultRegisterer.MustRegister(database.queryDuration)
	}
}

// Shutdown close database. Called by samber/do on container shutdown.
func (r *Database) Shutdown(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db error: %w", err)
	}

	log.Ctx(ctx).Debug().Msg("db closed")

	return nil
}

// Migrate apply pending schema migrations one by one up to the newest
// version.
func (r *Database) Migrate(ctx context.Context) error {
	logger := log.Ctx(ctx)
	provider := r.newMigrationsProvider()

	ver, err := provider.GetDBVersion(ctx)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "", "get database version failed")
	}

	logger.Info().Msgf("current database version: %d", ver)

	for {
		res, err := provider.UpByOne(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			break
		}

		if err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "", "migrate database up failed")
		}

		logger.Debug().Msgf("migration: %s", res)
	}

	ver, err = provider.GetDBVersion(ctx)
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "", "get migrated database version failed")
	}

	logger.Info().Msgf("migrated database version: %d", ver)

	if r.isSqlite() {
		if _, err := r.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "execute optimize script failed")
		}
	}

	return nil
}

func (r *Database) newMigrationsProvider() *goose.Provider {
	migdir, err := fs.Sub(embedMigrations, "migrations/"+r.driver)
	if err != nil {
		panic(fmt.Errorf("prepare migration fs failed: %w", err))
	}

	dialect := goose.DialectPostgres
	if r.isSqlite() {
		dialect = goose.DialectSQLite3
	}

	provider, err := goose.NewProvider(dialect, r.db.DB, migdir)
	if err != nil {
		panic(fmt.Errorf("create goose provider failed: %w", err))
	}

	return provider
}

func (r *Database) getConnection(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, aerr.ApplyFor(aerr.ErrDatabase, err, "open connection failed")
	}

	if err := r.onConnect(ctx, conn); err != nil {
		_ = conn.Close()

		return nil, aerr.ApplyFor(aerr.ErrDatabase, err, "run onConnect scripts failed")
	}

	return conn, nil
}

func (r *Database) closeConnection(ctx context.Context, conn *sqlx.Conn) {
	if err := r.onClose(ctx, conn); err != nil {
		log.Logger.Error().Err(err).Msg("run scripts onClose failed")
	}

	if err := conn.Close(); err != nil {
		log.Logger.Error().Err(err).Msg("close connection failed")
	}
}

// Maintenance run database engine compaction scripts. Domain rows cleanup is
// responsibility of repositories.
func (r *Database) Maintenance(ctx context.Context) error {
	logger := log.Ctx(ctx)

	scripts := []string{"VACUUM ANALYZE;"}
	if r.isSqlite() {
		scripts = []string{"VACUUM;", "ANALYZE;", "PRAGMA optimize;"}
	}

	for idx, script := range scripts {
		logger.Debug().Msgf("run maintenance script[%d]: %q", idx, script)

		res, err := r.db.ExecContext(ctx, script)
		if err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "execute maintenance script failed").
				WithMeta("sql", script)
		}

		if affected, err := res.RowsAffected(); err == nil {
			logger.Debug().Msgf("maintenance script[%d] finished; rows affected: %d", idx, affected)
		}
	}

	logger.Info().Msg("database engine maintenance finished")

	return nil
}

func (r *Database) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return aerr.Wrapf(err, "ping database failed").WithTag(aerr.InternalError)
	}

	return nil
}

// Clear delete all rows from all tables. Used in tests.
func (r *Database) Clear(ctx context.Context) error {
	// order matter: referencing tables go before referenced ones
	for _, table := range []string{
		"subscription_log", "podcast_stats", "podcast_slugs", "podcast_oldids",
		"podcasts", "podcast_groups", "devices", "users",
	} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return aerr.ApplyFor(aerr.ErrDatabase, err, "clear database failed").WithMeta("table", table)
		}
	}

	return nil
}

// onConnect apply per-connection settings; run on open for each new
// connection.
func (r *Database) onConnect(ctx context.Context, db sqlx.ExecerContext) error {
	if !r.isSqlite() {
		return nil
	}

	_, err := db.ExecContext(ctx, "PRAGMA temp_store = MEMORY; PRAGMA busy_timeout = 1000;")
	if err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "execute onConnect script failed")
	}

	return nil
}

func (r *Database) onClose(ctx context.Context, db sqlx.ExecerContext) error {
	if !r.isSqlite() {
		return nil
	}

	if _, err := db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return aerr.ApplyFor(aerr.ErrDatabase, err, "execute onClose script failed")
	}

	return nil
}

// observeQueryDuration record elapsed time labeled with the first caller
// outside this package.
func (r *Database) observeQueryDuration(start time.Time) {
	if r.queryDuration == nil {
		return
	}

	rpc := make([]uintptr, 8) //nolint:mnd
	frames := runtime.CallersFrames(rpc[:runtime.Callers(2, rpc)])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.Contains(frame.Function, "/internal/db.") {
			r.queryDuration.WithLabelValues(frame.Function).Observe(time.Since(start).Seconds())

			return
		}

		if !more {
			return
		}
	}
}

//------------------------------------------------------------------------------

func prepareSqliteConnstr(connstr string) (string, error) {
	if connstr == "" {
		return "", aerr.ErrInvalidConf.WithUserMsg("invalid (empty) database connection string")
	}

	if connstr == ":memory:" {
		return ":memory:?_fk=ON", nil
	}

	parsed, err := url.Parse(connstr)
	if err != nil {
		return "", aerr.ApplyFor(aerr.ErrInvalidConf, err, "", "parse database connection string failed")
	}

	if parsed.Path == "" {
		return "", aerr.ErrInvalidConf.WithUserMsg("invalid database connection string - missing path")
	}

	query := parsed.Query()
	if !query.Has("_fk") && !query.Has("__foreign_keys") {
		query.Set("_fk", "ON")
	}

	for key, val := range map[string]string{"_journal_mode": "WAL", "_synchronous": "NORMAL"} {
		if !query.Has(key) {
			query.Set(key, val)
		}
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

//------------------------------------------------------------------------------

// InConnectionR run `fun` with database access object embedded in context;
// open/close connection when context carry no database access object yet.
// Return `fun` result and error.
func InConnectionR[T any](ctx context.Context, r *Database,
	fun func(ctx context.Context) (T, error),
) (T, error) {
	defer r.observeQueryDuration(time.Now())

	if _, ok := Ctx(ctx); ok {
		return fun(ctx)
	}

	conn, err := r.getConnection(ctx)
	if err != nil {
		var zero T

		return zero, err
	}

	defer r.closeConnection(ctx, conn)

	return fun(WithCtx(ctx, conn))
}

// InTransaction run `fun` in db transaction. When context already carry
// database access object, `fun` join it instead of opening own transaction.
func InTransaction(ctx context.Context, r *Database, fun func(ctx context.Context) error) error {
	_, err := InTransactionR(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fun(ctx)
	})

	return err
}

// InTransactionR run `fun` in db transaction and return its result. When
// context already carry database access object, `fun` join it instead of
// opening own transaction. Rollback on `fun` error, commit otherwise.
func InTransactionR[T any](ctx context.Context, r *Database,
	fun func(ctx context.Context) (T, error),
) (T, error) {
	defer r.observeQueryDuration(time.Now())

	if _, ok := Ctx(ctx); ok {
		return fun(ctx)
	}

	var zero T

	conn, err := r.getConnection(ctx)
	if err != nil {
		return zero, err
	}

	defer r.closeConnection(ctx, conn)

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return zero, aerr.ApplyFor(aerr.ErrDatabase, err, "begin tx failed")
	}

	res, err := fun(WithCtx(ctx, tx))
	if err != nil {
		if rberr := tx.Rollback(); rberr != nil {
			merr := errors.Join(err, fmt.Errorf("rollback error: %w", rberr))

			return res, aerr.ApplyFor(aerr.ErrDatabase, merr, "execute func in trans and rollback failed")
		}

		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, aerr.ApplyFor(aerr.ErrDatabase, err, "commit tx failed")
	}

	return res, nil
}
