package config

import "errors"

// ErrValidation — конфигурация синтаксически разобрана, но нарушает одно
// или несколько бизнес-правил (неизвестный тип input, отсутствующий
// input_id у input-triggered job, неположительный batch_size/every_seconds
// и т.п.). Заворачивается в ошибку с подробностями через %w.
var ErrValidation = errors.New("invalid configuration")
