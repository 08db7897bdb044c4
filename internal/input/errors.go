package input

import "errors"

// Ошибки input adapters и input manager.
var (
	// ErrUnsupported — операция не поддерживается данным типом adapter
	// (например, Append на rabbitmq input).
	ErrUnsupported = errors.New("operation not supported by this input type")

	// ErrUnknownType — неизвестный тип input при построении Manager.
	ErrUnknownType = errors.New("unknown input type")

	// ErrNotConnected — rabbitmq adapter не смог установить соединение.
	ErrNotConnected = errors.New("rabbitmq adapter not connected")
)
