package lock

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolAdapter адаптирует *pgxpool.Pool (чей Exec возвращает
// (pgconn.CommandTag, error)) к Pool — Leader не нуждается в command tag.
type PoolAdapter struct {
	Pool *pgxpool.Pool
}

func (a PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.Pool.QueryRow(ctx, sql, args...)
}

func (a PoolAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := a.Pool.Exec(ctx, sql, args...)
	return err
}
