package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/espresso/internal/domain"
)

const (
	defaultTickSeconds = 1
	defaultNumWorkers  = 5
)

// SchedulerConfig — процессные настройки верхнего уровня (не per-job).
type SchedulerConfig struct {
	TickSeconds time.Duration
	NumWorkers  int
}

// Config — полностью разобранная и провалидированная конфигурация.
type Config struct {
	Scheduler SchedulerConfig
	Inputs    []*domain.InputDefinition
	Jobs      []*domain.JobDefinition
}

// Load читает и разбирает YAML-файл по path. Любая ошибка разбора или
// валидации фатальна — Load не возвращает частично заполненный Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает содержимое YAML-документа, уже прочитанного в память —
// выделено отдельно от Load ради тестируемости без временных файлов.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var errs []error

	inputs, inputErrs := toInputs(raw.Inputs)
	errs = append(errs, inputErrs...)

	inputIDs := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		inputIDs[in.ID] = struct{}{}
	}

	jobs, jobErrs := toJobs(raw.Jobs, inputIDs)
	errs = append(errs, jobErrs...)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}

	tickSeconds := raw.TickSeconds
	if tickSeconds <= 0 {
		tickSeconds = defaultTickSeconds
	}
	numWorkers := raw.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}

	return &Config{
		Scheduler: SchedulerConfig{
			TickSeconds: time.Duration(tickSeconds) * time.Second,
			NumWorkers:  numWorkers,
		},
		Inputs: inputs,
		Jobs:   jobs,
	}, nil
}

func toInputs(raws []rawInput) ([]*domain.InputDefinition, []error) {
	var errs []error
	defs := make([]*domain.InputDefinition, 0, len(raws))

	for _, r := range raws {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("input: id is required"))
			continue
		}

		var typ domain.InputType
		switch r.Type {
		case string(domain.InputList):
			typ = domain.InputList
		case string(domain.InputRabbitMQ):
			typ = domain.InputRabbitMQ
		default:
			errs = append(errs, fmt.Errorf("input %q: unknown type %q", r.ID, r.Type))
			continue
		}

		def := &domain.InputDefinition{
			ID:            r.ID,
			Type:          typ,
			Items:         r.Items,
			URL:           r.URL,
			Queue:         r.Queue,
			PrefetchCount: r.PrefetchCount,
		}
		def.ApplyDefaults()
		defs = append(defs, def)
	}

	return defs, errs
}

func toJobs(raws []rawJob, inputIDs map[string]struct{}) ([]*domain.JobDefinition, []error) {
	var errs []error
	defs := make([]*domain.JobDefinition, 0, len(raws))

	for _, r := range raws {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("job: id is required"))
			continue
		}
		if r.Target == "" {
			errs = append(errs, fmt.Errorf("job %q: target is required", r.ID))
			continue
		}

		sched, err := toSchedule(r.ID, r.Schedule)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		trigger, err := toTrigger(r.ID, r.Trigger, inputIDs)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if r.BatchSize != nil && *r.BatchSize <= 0 {
			errs = append(errs, fmt.Errorf("job %q: batch_size must be positive", r.ID))
			continue
		}

		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}

		batchSize := domain.DefaultBatchSize
		if r.BatchSize != nil {
			batchSize = *r.BatchSize
		}
		maxRetries := domain.DefaultMaxRetries
		if r.MaxRetries != nil {
			maxRetries = *r.MaxRetries
		}
		retryDelaySeconds := domain.DefaultRetryDelaySeconds
		if r.RetryDelaySeconds != nil {
			retryDelaySeconds = *r.RetryDelaySeconds
		}
		timeoutSeconds := domain.DefaultTimeoutSeconds
		if r.TimeoutSeconds != nil {
			timeoutSeconds = *r.TimeoutSeconds
		}

		kwargs := r.Kwargs
		if kwargs == nil {
			kwargs = make(map[string]any)
		}

		def := &domain.JobDefinition{
			ID:                r.ID,
			Target:            r.Target,
			Schedule:          sched,
			Trigger:           trigger,
			Args:              r.Args,
			Kwargs:            kwargs,
			BatchSize:         batchSize,
			MaxRetries:        maxRetries,
			RetryDelaySeconds: retryDelaySeconds,
			TimeoutSeconds:    timeoutSeconds,
			Enabled:           enabled,
		}
		defs = append(defs, def)
	}

	return defs, errs
}

func toSchedule(jobID string, r rawSchedule) (domain.Schedule, error) {
	switch domain.ScheduleKind(r.Kind) {
	case domain.ScheduleCron:
		if err := domain.ValidateCronExpr(r.Cron); err != nil {
			return domain.Schedule{}, fmt.Errorf("job %q: %w", jobID, err)
		}
		return domain.Schedule{Kind: domain.ScheduleCron, Cron: r.Cron}, nil

	case domain.ScheduleInterval:
		if r.EverySeconds <= 0 {
			return domain.Schedule{}, fmt.Errorf("job %q: every_seconds must be positive", jobID)
		}
		return domain.Schedule{Kind: domain.ScheduleInterval, EverySeconds: r.EverySeconds}, nil

	case domain.ScheduleOneOff:
		runAt, err := time.Parse(time.RFC3339, r.RunAt)
		if err != nil {
			return domain.Schedule{}, fmt.Errorf("job %q: invalid run_at %q: %w", jobID, r.RunAt, err)
		}
		return domain.Schedule{Kind: domain.ScheduleOneOff, RunAt: runAt}, nil

	case domain.ScheduleOnDemand:
		return domain.Schedule{Kind: domain.ScheduleOnDemand}, nil

	default:
		return domain.Schedule{}, fmt.Errorf("job %q: unknown schedule kind %q", jobID, r.Kind)
	}
}

func toTrigger(jobID string, r *rawTrigger, inputIDs map[string]struct{}) (*domain.Trigger, error) {
	if r == nil {
		return nil, nil
	}
	if domain.TriggerKind(r.Kind) != domain.TriggerInput {
		return nil, fmt.Errorf("job %q: unknown trigger kind %q", jobID, r.Kind)
	}
	if r.InputID == "" {
		return nil, fmt.Errorf("job %q: trigger.input_id is required", jobID)
	}
	if _, ok := inputIDs[r.InputID]; !ok {
		return nil, fmt.Errorf("job %q: trigger references unknown input %q", jobID, r.InputID)
	}
	return &domain.Trigger{Kind: domain.TriggerInput, InputID: r.InputID}, nil
}
