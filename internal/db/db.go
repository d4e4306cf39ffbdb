package db

import (
	"context"
	"database/sql"
	"fmt"

	"aptbot/internal/config"
)

func Open(cfg config.DBConfig) (*Database, error) {
	pool, err := sql.Open(Driver, BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sql server pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Database{pool: pool}, nil
}

type Database struct {
	pool *sql.DB
}

func (d *Database) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	q, err := InjectSchema(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.query(ctx, q, args...)
}

func (d *Database) QueryUnscoped(ctx context.Context, query string, args ...any) ([]Row, error) {
	return d.query(ctx, query, args...)
}

func (d *Database) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	q, err := InjectSchema(ctx, query)
	if err != nil {
		return 0, err
	}

	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.pool.Close()
}

func (d *Database) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := d.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c.Name()] = convertValue(c.DatabaseTypeName(), values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
