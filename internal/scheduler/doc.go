// Package scheduler реализует тик-планировщик job'ов.
//
// Scheduler периодически (раз в tick_seconds) проверяет все
// зарегистрированные job'ы и для каждого, чьё состояние допускает запуск
// (CanExecute ∧ due), отправляет попытку выполнения в worker pool.
//
// Структура:
//   - scheduler.go — Scheduler: тик, диспетчеризация, операции управления
//     (Pause/Resume/Stop/Enable/Disable/Trigger), завершение попытки
//
// Вычисление next_run_time для cron/interval расписаний находится в
// internal/domain (nextrun.go), а не в этом пакете.
//
// Leader election:
//
// Scheduler не реализует выбор лидера самостоятельно — это делает
// internal/lock через pg_try_advisory_lock. Tick() должен вызываться
// только текущим лидером (либо всегда, если лидер-лок не настроен).
package scheduler
