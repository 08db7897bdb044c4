// Package registry реализует разрешение callable-целей job'ов по имени.
//
// Распределённая версия разрешала (module, function) динамически через
// import machinery; здесь, в статически типизированном языке, это
// заменено явным реестром, заполняемым при старте процесса (design notes,
// "Runtime callable resolution").
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaiso/espresso/internal/domain"
)

// ErrTargetNotFound — target не зарегистрирован под этим именем.
var ErrTargetNotFound = fmt.Errorf("target not registered")

// TargetFunc — единая вызывающая конвенция для всех job targets: batch
// присутствует только для input-triggered jobs (иначе nil), params — это
// JobDefinition.Parameters().
type TargetFunc func(ctx context.Context, batch []domain.Item, params map[string]any) error

// Registry — потокобезопасный реестр name → TargetFunc.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]TargetFunc
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{targets: make(map[string]TargetFunc)}
}

// Register привязывает name к fn. Повторная регистрация того же имени
// перезаписывает предыдущую привязку — это осознанное решение, чтобы
// тесты могли подменять targets без пересоздания реестра.
func (r *Registry) Register(name string, fn TargetFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[name] = fn
}

// Resolve возвращает зарегистрированную функцию по имени, либо
// ErrTargetNotFound, обёрнутую именем.
func (r *Registry) Resolve(name string) (TargetFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.targets[name]
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrTargetNotFound)
	}
	return fn, nil
}
