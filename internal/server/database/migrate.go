package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database/migrations"
)

// migrate creates the users and workloads tables. Every statement is
// CREATE ... IF NOT EXISTS so running it against an existing database is a
// no-op.
func migrate(ctx context.Context, db *sql.DB, kind Kind) error {
	dialect := goose.DialectSQLite3
	dir := "sqlite"
	if kind == KindMySQL {
		dialect = goose.DialectMySQL
		dir = "mysql"
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return MapError(err)
	}
	return nil
}

// integrityCheck runs a lightweight structural check. A non-empty warning
// means the engine answered but reported a problem.
func integrityCheck(ctx context.Context, q *querier, kind Kind) (warning string, err error) {
	if kind == KindMySQL {
		var one int
		if _, err := q.GetOne(ctx, &one, "SELECT 1"); err != nil {
			return "", err
		}
		return "", nil
	}

	var result string
	if _, err := q.GetOne(ctx, &result, "PRAGMA integrity_check"); err != nil {
		return "", err
	}
	if result != "ok" {
		return result, nil
	}
	return "", nil
}
