package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/dbx"
	"github.com/dmitrijs2005/workloadtracker/internal/filex"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
)

// Opener creates the raw pool for an engine. Tests replace it to hand out
// sqlmock connections.
type Opener func(kind Kind, cfg Config) (*sql.DB, error)

// Database is the DB implementation. It is created once by Open and shared by
// every request; only fallback and Close replace or release the handle.
type Database struct {
	cfg    Config
	logger logging.Logger

	open       Opener
	sleep      func(ctx context.Context, d time.Duration) error
	onFallback func(from, to Kind)

	mu     sync.RWMutex
	sqlDB  *sql.DB
	bunDB  *bun.DB
	kind   Kind
	closed bool

	state        atomic.Int32
	reconnecting singleflight.Group
}

var errClosed = fmt.Errorf("%w: database is closed", common.ErrConnectivity)

var _ DB = (*Database)(nil)

// Option customises Open.
type Option func(*Database)

// WithOpener replaces the engine opener.
func WithOpener(o Opener) Option {
	return func(d *Database) { d.open = o }
}

// WithSleep replaces the backoff sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Database) { d.sleep = fn }
}

// WithFallbackHook registers a callback invoked after a successful fallback.
func WithFallbackHook(fn func(from, to Kind)) Option {
	return func(d *Database) { d.onFallback = fn }
}

// Open selects the engine, connects with retries, creates the schema and runs
// the integrity check. When MySQL is requested but unusable (missing
// parameters, unreachable, failing migrations) and cfg.FallbackToSQLite is
// set, it continues on SQLite. It fails only when no engine could be brought
// up.
func Open(ctx context.Context, cfg Config, logger logging.Logger, opts ...Option) (*Database, error) {
	d := &Database{
		cfg:    cfg,
		logger: logger.With("component", "database"),
		open:   openEngine,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.initialize(ctx); err != nil {
		d.state.Store(int32(StateFailed))
		return nil, err
	}
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	d.state.Store(int32(StateConnecting))

	kind := d.cfg.Type
	if kind == "" {
		kind = KindSQLite
	}

	if kind == KindMySQL && !d.cfg.mysqlConfigured() {
		if !d.cfg.FallbackToSQLite {
			return fmt.Errorf("%w: mysql selected but DB_HOST, DB_USER, DB_PASSWORD or DB_NAME is not set", common.ErrConnectivity)
		}
		d.logger.Warn(ctx, "mysql parameters incomplete, using sqlite", "path", d.cfg.Path)
		d.fellBack(KindMySQL, KindSQLite)
		kind = KindSQLite
	}

	err := d.start(ctx, kind)
	if err != nil && kind == KindMySQL && d.cfg.FallbackToSQLite {
		d.logger.Warn(ctx, "mysql initialization failed, falling back to sqlite", "error", err)
		if err = d.start(ctx, KindSQLite); err == nil {
			d.fellBack(KindMySQL, KindSQLite)
		}
	}
	if err != nil {
		return err
	}

	d.state.Store(int32(StateReady))
	d.logger.Info(ctx, "database ready", "kind", d.Kind())
	return nil
}

// start brings one engine up and installs it as the active handle.
func (d *Database) start(ctx context.Context, kind Kind) error {
	sqlDB, err := d.open(kind, d.cfg)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", common.ErrConnectivity, kind, err)
	}

	bunDB := newBunDB(sqlDB, kind)
	q := &querier{conn: sqlDB, scanner: bunDB, timeout: d.cfg.AcquireTimeout}

	if err := d.verify(ctx, kind, q, d.cfg.MaxRetries); err != nil {
		_ = sqlDB.Close()
		return err
	}
	if err := migrate(ctx, sqlDB, kind); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("create schema on %s: %w", kind, err)
	}

	if warning, err := integrityCheck(ctx, q, kind); err != nil {
		d.logger.Error(ctx, "integrity check failed", "kind", kind, "error", err)
	} else if warning != "" {
		d.logger.Warn(ctx, "integrity check reported a problem", "kind", kind, "result", warning)
	}

	d.mu.Lock()
	old := d.bunDB
	d.sqlDB, d.bunDB, d.kind = sqlDB, bunDB, kind
	d.closed = false
	d.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (d *Database) fellBack(from, to Kind) {
	if d.onFallback != nil {
		d.onFallback(from, to)
	}
}

func newBunDB(sqlDB *sql.DB, kind Kind) *bun.DB {
	if kind == KindMySQL {
		return bun.NewDB(sqlDB, mysqldialect.New())
	}
	return bun.NewDB(sqlDB, sqlitedialect.New())
}

func openEngine(kind Kind, cfg Config) (*sql.DB, error) {
	if kind == KindMySQL {
		return openMySQL(cfg)
	}
	return openSQLite(cfg)
}

func openSQLite(cfg Config) (*sql.DB, error) {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if !cfg.inMemory() {
		if err := filex.EnsureParentDir(cfg.Path, 0o755); err != nil {
			return nil, err
		}
		dsn = "file:" + cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.inMemory() {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	return db, nil
}

func openMySQL(cfg Config) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.mysqlAddr()
	mc.DBName = cfg.Name
	mc.ParseTime = true
	// report matched rather than changed rows so a no-op UPDATE is not a miss
	mc.ClientFoundRows = true
	mc.Loc = time.UTC
	mc.Timeout = cfg.ConnectionTimeout
	mc.ReadTimeout = cfg.AcquireTimeout
	mc.WriteTimeout = cfg.AcquireTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}

	limit := cfg.ConnectionLimit
	if limit <= 0 {
		limit = 20
	}
	db.SetMaxOpenConns(limit)
	db.SetMaxIdleConns(min(limit, 10))
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// active returns a querier over the current handle. Callers hold d.mu.RLock.
func (d *Database) active() (*querier, error) {
	if d.closed || d.sqlDB == nil {
		return nil, errClosed
	}
	return &querier{conn: d.sqlDB, scanner: d.bunDB, timeout: d.cfg.AcquireTimeout}, nil
}

func (d *Database) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	var res Result
	err := d.withRetry(ctx, func(q *querier) error {
		var err error
		res, err = q.Execute(ctx, query, args...)
		return err
	})
	return res, err
}

func (d *Database) Query(ctx context.Context, dest any, query string, args ...any) error {
	return d.withRetry(ctx, func(q *querier) error {
		return q.Query(ctx, dest, query, args...)
	})
}

func (d *Database) GetOne(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	var found bool
	err := d.withRetry(ctx, func(q *querier) error {
		var err error
		found, err = q.GetOne(ctx, dest, query, args...)
		return err
	})
	return found, err
}

// Transaction acquires a dedicated connection, begins a transaction, runs fn
// and commits. Any error from fn rolls back and is returned unchanged; a
// panic rolls back and is rethrown. The connection is always released.
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.active(); err != nil {
		return err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, d.acquireTimeout())
	defer cancel()

	return dbx.WithConn(acquireCtx, d.sqlDB, func(_ context.Context, conn *sql.Conn) error {
		return dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(ctx, &querier{conn: tx, scanner: d.bunDB, timeout: d.cfg.AcquireTimeout})
		})
	})
}

func (d *Database) acquireTimeout() time.Duration {
	if d.cfg.AcquireTimeout > 0 {
		return d.cfg.AcquireTimeout
	}
	return 60 * time.Second
}

// Kind reports the engine currently serving queries.
func (d *Database) Kind() Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.kind
}

// State reports the lifecycle state.
func (d *Database) State() State {
	return State(d.state.Load())
}

// Close releases the pool. Calling it again only logs.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.bunDB == nil {
		d.logger.Info(context.Background(), "database already closed")
		return nil
	}

	err := d.bunDB.Close()
	d.closed = true
	d.state.Store(int32(StateClosed))
	if err != nil {
		d.logger.Error(context.Background(), "closing database", "kind", d.kind, "error", err)
		return fmt.Errorf("close %s: %w", d.kind, err)
	}
	d.logger.Info(context.Background(), "database closed", "kind", d.kind)
	return nil
}
