package db

import "context"

// Querier runs SQL against the shared pool. Query and Exec resolve the
// {schema} placeholder from the context; QueryUnscoped does not.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryUnscoped(ctx context.Context, query string, args ...any) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}
