package input

import (
	"context"
	"sync"

	"github.com/shaiso/espresso/internal/domain"
)

// ListAdapter — in-memory источник данных с курсором.
//
// Ack/Nack — no-op (list input не имеет acknowledgment semantics). Append
// дописывает в хвост и не трогает курсор, так что вновь добавленные
// элементы будут подхвачены следующим PollBatch.
type ListAdapter struct {
	mu     sync.Mutex
	items  []domain.Item
	cursor int
}

// NewListAdapter создаёт adapter с начальным содержимым def.Items.
func NewListAdapter(def *domain.InputDefinition) *ListAdapter {
	items := make([]domain.Item, len(def.Items))
	copy(items, def.Items)
	return &ListAdapter{items: items}
}

// PollBatch возвращает items[cursor:cursor+n] и продвигает курсор.
func (a *ListAdapter) PollBatch(_ context.Context, n int) []domain.Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n <= 0 || a.cursor >= len(a.items) {
		return nil
	}

	end := a.cursor + n
	if end > len(a.items) {
		end = len(a.items)
	}

	batch := make([]domain.Item, end-a.cursor)
	copy(batch, a.items[a.cursor:end])
	a.cursor = end

	return batch
}

// PollAll возвращает все оставшиеся элементы и продвигает курсор до конца.
func (a *ListAdapter) PollAll(ctx context.Context) []domain.Item {
	var all []domain.Item
	for {
		batch := a.PollBatch(ctx, pollAllBatchSize)
		if len(batch) == 0 {
			return all
		}
		all = append(all, batch...)
	}
}

// HasData — true, пока курсор не достиг конца списка.
func (a *ListAdapter) HasData(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor < len(a.items)
}

// Ack — no-op.
func (a *ListAdapter) Ack(_ context.Context, _ domain.Item) error { return nil }

// Nack — no-op.
func (a *ListAdapter) Nack(_ context.Context, _ domain.Item, _ bool) error { return nil }

// Append добавляет item в хвост списка.
func (a *ListAdapter) Append(item domain.Item) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
	return nil
}
