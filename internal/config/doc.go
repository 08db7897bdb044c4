// Package config разбирает YAML-описание процесса планировщика в
// internal/domain.JobDefinition и internal/domain.InputDefinition.
//
// Loader двухфазный: сперва gopkg.in/yaml.v3 разбирает документ в
// промежуточные raw-структуры (без какой-либо бизнес-логики), затем
// toInputs/toJobs конвертируют их и применяют валидацию, сводя все найденные
// ошибки конфигурации в одну агрегированную ошибку — процесс не должен
// стартовать Scheduler с частично корректной конфигурацией.
package config
