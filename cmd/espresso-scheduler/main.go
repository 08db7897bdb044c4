// espresso-scheduler — процесс планировщика: читает конфигурацию job'ов
// и input'ов из YAML, поддерживает тик-цикл диспетчеризации, выполняет
// job'ы ограниченным пулом воркеров и обслуживает HTTP control API и
// /metrics. Опционально участвует в выборах лидера через Postgres
// advisory lock, если несколько реплик делят один файл конфигурации.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/espresso/internal/api"
	"github.com/shaiso/espresso/internal/config"
	"github.com/shaiso/espresso/internal/input"
	"github.com/shaiso/espresso/internal/lock"
	"github.com/shaiso/espresso/internal/registry"
	"github.com/shaiso/espresso/internal/scheduler"
	"github.com/shaiso/espresso/internal/telemetry"
	"github.com/shaiso/espresso/internal/worker"
)

const leaderLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger()

	configPath := os.Getenv("ESPRESSO_CONFIG")
	if configPath == "" {
		configPath = "espresso.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics()

	inputs, err := input.NewManager(cfg.Inputs, logger, metrics)
	if err != nil {
		logger.Error("failed to build input manager", "error", err)
		os.Exit(1)
	}

	reg := registry.New()
	registerTargets(reg)

	pool := worker.New(worker.Config{
		NumWorkers: cfg.Scheduler.NumWorkers,
		Registry:   reg,
		Inputs:     inputs,
		Metrics:    metrics,
		Logger:     logger,
	})

	sched, err := scheduler.New(scheduler.Config{
		Jobs:         cfg.Jobs,
		Pool:         pool,
		Inputs:       inputs,
		TickInterval: cfg.Scheduler.TickSeconds,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}

	leader := setupLeader(ctx, logger)
	if leader != nil {
		defer leader.Release(context.Background())
	}

	go runSchedulerLoop(ctx, sched, leader, cfg.Scheduler.TickSeconds, logger)

	handler := api.NewHandler(api.Config{Scheduler: sched, Metrics: metrics, Logger: logger})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("ESPRESSO_PORT"); v != "" {
		addr = ":" + v
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("espresso-scheduler listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

// registerTargets привязывает встраиваемым приложением реализованные
// callable'ы к их именам из YAML-конфигурации. В эталонной сборке это
// единственное место, которое приложение переопределяет под свой домен.
func registerTargets(reg *registry.Registry) {
	// No targets are registered here; an embedding application calls
	// reg.Register(name, fn) for each of its own callables before
	// constructing the worker pool.
}

// setupLeader поднимает опциональный Postgres advisory lock, если
// ESPRESSO_LOCK_DB_URL задан; в противном случае возвращает nil, и процесс
// безусловно считает себя единственным диспетчером.
func setupLeader(ctx context.Context, logger *slog.Logger) *lock.Leader {
	dsn := os.Getenv("ESPRESSO_LOCK_DB_URL")
	if dsn == "" {
		return nil
	}

	pgPool, err := lock.NewPool(ctx, dsn)
	if err != nil {
		logger.Error("failed to connect leader lock database, running unlocked", "error", err)
		return nil
	}

	return lock.NewLeader(lock.PoolAdapter{Pool: pgPool}, leaderLockKey, logger)
}

// runSchedulerLoop тикает Scheduler, но пропускает тик, пока leader lock
// сконфигурирован и не удерживается этим процессом.
func runSchedulerLoop(ctx context.Context, sched *scheduler.Scheduler, leader *lock.Leader, tick time.Duration, logger *slog.Logger) {
	if leader == nil {
		sched.Run(ctx)
		return
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := leader.TryAcquire(ctx); err != nil {
				logger.Warn("leader lock acquisition failed", "error", err)
				continue
			}
			if !leader.IsLeader() {
				continue
			}
			sched.Tick(ctx)
		}
	}
}
