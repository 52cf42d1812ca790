package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/dmitrijs2005/workloadtracker/internal/dbx"
)

// querier runs statements against one handle: the pool, or a transaction.
// Statements go through database/sql with driver side parameters; bun is
// only used to scan rows into the destination.
type querier struct {
	conn    dbx.DBTX
	scanner *bun.DB
	timeout time.Duration
}

func (q *querier) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, q.timeout)
}

// fail maps err, treating any error after the bound expired as a
// connectivity failure whatever the driver reported.
func (q *querier) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return MapError(fmt.Errorf("%w: %v", ctxErr, err))
	}
	return MapError(err)
}

func (q *querier) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	ctx, cancel := q.bounded(ctx)
	defer cancel()

	res, err := q.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, q.fail(ctx, err)
	}

	var out Result
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func (q *querier) Query(ctx context.Context, dest any, query string, args ...any) error {
	ctx, cancel := q.bounded(ctx)
	defer cancel()

	rows, err := q.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return q.fail(ctx, err)
	}
	// ScanRows closes rows. A slice destination with no rows is not an error.
	if err := q.scanner.ScanRows(ctx, rows, dest); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return q.fail(ctx, err)
	}
	return nil
}

func (q *querier) GetOne(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	ctx, cancel := q.bounded(ctx)
	defer cancel()

	rows, err := q.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return false, q.fail(ctx, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, q.fail(ctx, err)
		}
		return false, nil
	}
	if err := q.scanner.ScanRow(ctx, rows, dest); err != nil {
		return false, q.fail(ctx, err)
	}
	return true, nil
}
