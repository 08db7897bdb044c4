package lock

import (
	"context"
	"log/slog"
)

// Leader — держатель advisory lock по заданному key.
//
// Несколько процессов (Scheduler'ов) с одним key конкурируют за лидерство;
// TryAcquire идемпотентен — повторный вызов, уже будучи лидером, просто
// подтверждает его. IsLeader — единственное, на что должен смотреть
// вызывающий перед тем, как выполнить тик диспетчеризации.
type Leader struct {
	pool     Pool
	key      int64
	logger   *slog.Logger
	isLeader bool
}

// Pool — тот срез *pgxpool.Pool, которым пользуется Leader.
type Pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Exec(ctx context.Context, sql string, args ...any) error
}

// Row абстрагирует pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// NewLeader создаёт Leader, изначально не являющийся лидером.
func NewLeader(pool Pool, key int64, logger *slog.Logger) *Leader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Leader{pool: pool, key: key, logger: logger}
}

// TryAcquire пытается стать (или подтвердить, что уже является) лидером.
// Ошибка означает сбой самого запроса к БД — вызывающий должен трактовать
// её как "лидерство не подтверждено в этом тике", не как фатальную.
func (l *Leader) TryAcquire(ctx context.Context) error {
	if l.isLeader {
		return nil
	}

	var acquired bool
	if err := l.pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&acquired); err != nil {
		return err
	}

	l.isLeader = acquired
	if acquired {
		l.logger.Info("acquired leader lock", "key", l.key)
	}
	return nil
}

// IsLeader возвращает текущее состояние лидерства, известное с последнего TryAcquire.
func (l *Leader) IsLeader() bool {
	return l.isLeader
}

// Release отпускает lock, если он удерживается. Вызывается при
// остановке процесса.
func (l *Leader) Release(ctx context.Context) {
	if !l.isLeader {
		return
	}
	if err := l.pool.Exec(ctx, "select pg_advisory_unlock($1)", l.key); err != nil {
		l.logger.Warn("failed to release leader lock", "key", l.key, "error", err)
		return
	}
	l.isLeader = false
}
