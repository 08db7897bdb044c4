// Package domain содержит неизменяемые определения jobs/inputs и их
// изменяемое runtime-состояние — данные, вокруг которых построены
// scheduler, worker pool и input manager.
package domain

import "time"

// ScheduleKind — вид расписания job.
type ScheduleKind string

const (
	ScheduleCron     ScheduleKind = "cron"
	ScheduleInterval ScheduleKind = "interval"
	ScheduleOneOff   ScheduleKind = "one_off"
	ScheduleOnDemand ScheduleKind = "on_demand"
)

// Schedule — расписание запуска job. Ровно одно из полей Cron/EverySeconds/RunAt
// имеет смысл в зависимости от Kind.
type Schedule struct {
	Kind ScheduleKind

	// Cron — cron-выражение (5 полей: minute hour dom month dow), для Kind=cron.
	Cron string

	// EverySeconds — интервал в секундах, для Kind=interval.
	EverySeconds int

	// RunAt — значение run_at из YAML, для Kind=one_off. Диспетчеризация его
	// не использует: one_off job, как и прочие не-on_demand job'ы, due с
	// момента старта scheduler'а (next_run_time = now).
	RunAt time.Time
}

func (s Schedule) IsCron() bool     { return s.Kind == ScheduleCron }
func (s Schedule) IsInterval() bool { return s.Kind == ScheduleInterval }
func (s Schedule) IsOneOff() bool   { return s.Kind == ScheduleOneOff }
func (s Schedule) IsOnDemand() bool { return s.Kind == ScheduleOnDemand }

// TriggerKind — вид триггера job.
type TriggerKind string

// TriggerInput — единственный на сегодня вид триггера: job запускается
// только когда связанный input готов отдать данные.
const TriggerInput TriggerKind = "input"

// Trigger — связывает job с input. Job с Trigger != nil запускается только
// когда InputManager.HasData(InputID) вернул true.
type Trigger struct {
	Kind    TriggerKind
	InputID string
}

// Default values applied by the config loader when a field is absent from
// the YAML document.
const (
	DefaultBatchSize          = 10
	DefaultMaxRetries         = 3
	DefaultRetryDelaySeconds  = 60
	DefaultTimeoutSeconds     = 300
)

// JobDefinition — неизменяемое определение job, разобранное из конфигурации.
//
// Target — ключ реестра callable'ов вида "module.function"; сам Registry
// не интерпретирует точку, это просто opaque строка.
type JobDefinition struct {
	ID       string
	Target   string
	Schedule Schedule
	Trigger  *Trigger

	// Args — позиционные аргументы из YAML. Kwargs их не содержит:
	// Parameters() добавляет их под ключом "args" при каждом вызове target'а.
	Args []any

	// Kwargs — именованные параметры, передаются target'у как есть.
	Kwargs map[string]any

	BatchSize         int
	MaxRetries        int
	RetryDelaySeconds int
	TimeoutSeconds    int
	Enabled           bool
}

// ApplyDefaults заполняет нулевые (и отрицательные) поля значениями по
// умолчанию. Загрузчик конфигурации её не вызывает — он сам применяет
// значения по умолчанию только к полям, отсутствующим в YAML; ApplyDefaults
// нужна для определений, собранных прямо в Go (тесты, фикстуры), где
// явный ноль не отличается от неуказанного значения.
func (j *JobDefinition) ApplyDefaults() {
	if j.BatchSize <= 0 {
		j.BatchSize = DefaultBatchSize
	}
	if j.MaxRetries <= 0 {
		j.MaxRetries = DefaultMaxRetries
	}
	if j.RetryDelaySeconds <= 0 {
		j.RetryDelaySeconds = DefaultRetryDelaySeconds
	}
	if j.TimeoutSeconds <= 0 {
		j.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if j.Kwargs == nil {
		j.Kwargs = make(map[string]any)
	}
}

// Parameters возвращает map параметров, переданных target'у: Kwargs с
// добавленным "args", если Args непуст. Это материализует дизайн-решение
// "(batch, parameters map)" из design notes — единая вызывающая конвенция
// вместо динамических args/kwargs.
func (j *JobDefinition) Parameters() map[string]any {
	params := make(map[string]any, len(j.Kwargs)+1)
	for k, v := range j.Kwargs {
		params[k] = v
	}
	if len(j.Args) > 0 {
		params["args"] = j.Args
	}
	return params
}
