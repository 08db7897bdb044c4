// Package cli реализует espressoctl — тонкий HTTP-клиент над control API
// планировщика (internal/api) и набор cobra-команд поверх него.
package cli
