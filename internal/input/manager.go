package input

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/telemetry"
)

// Manager owns id → adapter and id → type, and routes poll/ack/nack by id.
// Unknown ids return empty/false/no-op rather than erroring, since a
// misconfigured trigger.input_id is a configuration-time concern, not a
// runtime one — it is validated at load time before a Manager ever exists.
type Manager struct {
	adapters map[string]Adapter
	types    map[string]domain.InputType
	logger   *slog.Logger
}

// NewManager builds a Manager from input definitions. Returns
// ErrUnknownType wrapped with the offending id if any definition names an
// unrecognized type — a configuration error, fatal at load time. metrics
// may be nil (e.g. in tests); queue adapters then skip depth reporting.
func NewManager(defs []*domain.InputDefinition, logger *slog.Logger, metrics *telemetry.Metrics) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		adapters: make(map[string]Adapter, len(defs)),
		types:    make(map[string]domain.InputType, len(defs)),
		logger:   logger,
	}

	for _, def := range defs {
		def.ApplyDefaults()

		switch def.Type {
		case domain.InputList:
			m.adapters[def.ID] = NewListAdapter(def)
		case domain.InputRabbitMQ:
			m.adapters[def.ID] = NewQueueAdapter(def, logger, metrics)
		default:
			return nil, fmt.Errorf("input %q: %w: %s", def.ID, ErrUnknownType, def.Type)
		}

		m.types[def.ID] = def.Type
	}

	return m, nil
}

// Poll polls every adapter for up to batchSize items and returns a map
// containing only the ids that produced at least one item.
func (m *Manager) Poll(ctx context.Context, batchSize int) map[string][]domain.Item {
	results := make(map[string][]domain.Item)
	for id, adapter := range m.adapters {
		items := adapter.PollBatch(ctx, batchSize)
		if len(items) > 0 {
			results[id] = items
		}
	}
	return results
}

// PollAll polls every adapter to exhaustion and returns a map containing
// only the ids that produced at least one item.
func (m *Manager) PollAll(ctx context.Context) map[string][]domain.Item {
	results := make(map[string][]domain.Item)
	for id, adapter := range m.adapters {
		items := adapter.PollAll(ctx)
		if len(items) > 0 {
			results[id] = items
		}
	}
	return results
}

// HasData delegates to the named adapter; unknown ids report no data.
func (m *Manager) HasData(ctx context.Context, id string) bool {
	adapter, ok := m.adapters[id]
	if !ok {
		return false
	}
	return adapter.HasData(ctx)
}

// AckBatch acknowledges a batch, but only for queue-type inputs — list
// inputs have no acknowledgment semantics, so this is a no-op for them.
func (m *Manager) AckBatch(ctx context.Context, id string, items []domain.Item) {
	if m.types[id] != domain.InputRabbitMQ {
		return
	}
	adapter, ok := m.adapters[id]
	if !ok {
		return
	}
	for _, item := range items {
		if err := adapter.Ack(ctx, item); err != nil {
			m.logger.Error("ack failed", "input_id", id, "error", err)
		}
	}
}

// NackBatch negative-acknowledges a batch, only for queue-type inputs.
func (m *Manager) NackBatch(ctx context.Context, id string, items []domain.Item, requeue bool) {
	if m.types[id] != domain.InputRabbitMQ {
		return
	}
	adapter, ok := m.adapters[id]
	if !ok {
		return
	}
	for _, item := range items {
		if err := adapter.Nack(ctx, item, requeue); err != nil {
			m.logger.Error("nack failed", "input_id", id, "error", err)
		}
	}
}

// AppendToInput forwards a single item to the named adapter's Append
// (list adapters only — others log and swallow ErrUnsupported).
func (m *Manager) AppendToInput(id string, item domain.Item) error {
	adapter, ok := m.adapters[id]
	if !ok {
		return nil
	}
	if err := adapter.Append(item); err != nil {
		m.logger.Warn("append to input failed", "input_id", id, "error", err)
		return nil
	}
	return nil
}

// AppendItemsToInput forwards multiple items to the named adapter.
func (m *Manager) AppendItemsToInput(id string, items []domain.Item) error {
	for _, item := range items {
		if err := m.AppendToInput(id, item); err != nil {
			return err
		}
	}
	return nil
}

// Close releases transport resources held by every adapter that has one
// (currently only QueueAdapter). Called when the scheduler shuts down.
func (m *Manager) Close() {
	for _, adapter := range m.adapters {
		if closer, ok := adapter.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
