package domain

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер 5-полевых cron-выражений (minute hour dom month dow),
// без секундного поля. Вычисления ведутся в UTC.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ComputeNextRun вычисляет next_run_time job'а после попытки выполнения.
//
// Для cron возвращает первое срабатывание cron-выражения строго после now.
// Для interval — last_run_time (или now, если job ни разу не запускался)
// плюс every_seconds. Для one_off и on_demand возвращает (nil, nil): эти
// расписания не пересчитываются автоматически — one_off держит
// next_run_time неизменным до явного завершения попытки, on_demand никогда
// не планирует себя сам. Их next_run_time целиком управляется
// scheduler'ом.
func ComputeNextRun(sched Schedule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	switch sched.Kind {
	case ScheduleCron:
		next, err := calculateNextCron(sched.Cron, now)
		if err != nil {
			return nil, err
		}
		return &next, nil

	case ScheduleInterval:
		next := calculateNextInterval(sched.EverySeconds, lastRun, now)
		return &next, nil

	case ScheduleOneOff, ScheduleOnDemand:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown schedule kind %q", sched.Kind)
	}
}

func calculateNextCron(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule.Next(from.UTC()).UTC(), nil
}

func calculateNextInterval(everySeconds int, lastRun *time.Time, from time.Time) time.Time {
	base := from
	if lastRun != nil {
		base = *lastRun
	}
	return base.Add(time.Duration(everySeconds) * time.Second).UTC()
}

// ValidateCronExpr проверяет валидность cron-выражения — используется
// загрузчиком конфигурации.
func ValidateCronExpr(expr string) error {
	_, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}
