package worker

import "errors"

var (
	// ErrExecutionTimeout — target не завершился в пределах timeout_seconds.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrTargetPanicked — target запаниковал во время выполнения; паника
	// перехвачена и превращена в обычную ошибку попытки.
	ErrTargetPanicked = errors.New("target panicked")
)
