// Package api предоставляет HTTP control surface поверх scheduler.Scheduler:
// просмотр состояния job'ов и операции управления (pause/resume/stop/enable/
// trigger), плюс health check и Prometheus /metrics. Сам API не хранит
// состояния — каждый обработчик это тонкая обёртка над соответствующим
// методом Scheduler.
package api
