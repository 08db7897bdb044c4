// Package input реализует polymorphic input adapters — единообразный
// poll/ack/nack интерфейс поверх разнородных источников данных (in-memory
// list, RabbitMQ), и Manager, который маршрутизирует по input id.
package input

import (
	"context"

	"github.com/shaiso/espresso/internal/domain"
)

// Adapter — закрытый набор операций, которые обязан поддерживать любой
// источник данных. Сознательно не открытый plugin-интерфейс: в системе
// ровно два варианта (ListAdapter, QueueAdapter), см. design notes.
//
// Ack/Nack присутствуют у всех адаптеров, но являются no-op для источников
// без acknowledgment semantics (list).
type Adapter interface {
	// PollBatch возвращает немедленно доступные элементы, не более n.
	// Никогда не возвращает ошибку на транзиентный сбой транспорта —
	// в этом случае просто возвращает пустой срез и логирует.
	PollBatch(ctx context.Context, n int) []domain.Item

	// PollAll повторяет PollBatch фиксированного размера, пока не
	// вернётся пустой срез.
	PollAll(ctx context.Context) []domain.Item

	// HasData — дешёвая проверка готовности без потребления данных.
	HasData(ctx context.Context) bool

	// Ack подтверждает успешную обработку элемента.
	Ack(ctx context.Context, item domain.Item) error

	// Nack отклоняет элемент; requeue управляет тем, возвращается ли он
	// в источник.
	Nack(ctx context.Context, item domain.Item, requeue bool) error

	// Append добавляет элемент в конец очереди (только list adapter).
	Append(item domain.Item) error
}

// pollAllBatchSize — размер батча, используемый PollAll реализациями по умолчанию.
const pollAllBatchSize = 50
