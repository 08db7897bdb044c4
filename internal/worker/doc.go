// Package worker реализует пул воркеров с ограниченной параллельностью,
// исполняющий отдельные попытки job'ов.
//
// Pool резолвит target через registry, читает данные из input.Manager, если
// у job есть trigger, вызывает target под timeout_seconds, пересчитывает
// next_run_time для cron/interval расписаний, разгружает семафор и вызывает
// callback с результатом. Решения о ретраях, отключении job'а и
// next_run_time для one_off/on_demand принимает internal/scheduler в этом
// callback-е.
package worker
