package domain

// Status — статус job в планировщике.
//
// Жизненный цикл:
//
//	active ⇄ paused   (Pause/Resume)
//	active|paused|stopped|disabled → stopped    (Stop)
//	active|paused|stopped|disabled → disabled   (Disable, или исчерпание retries)
//	paused|stopped|disabled → active            (Enable)
type Status string

const (
	// StatusActive — job участвует в диспетчеризации.
	StatusActive Status = "active"

	// StatusPaused — job временно не диспетчеризуется, сохраняет next_run_time.
	StatusPaused Status = "paused"

	// StatusStopped — job остановлен; включается обратно только Enable().
	StatusStopped Status = "stopped"

	// StatusDisabled — job отключён (вручную или после исчерпания retries).
	StatusDisabled Status = "disabled"
)
