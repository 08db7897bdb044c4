package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/espresso/internal/domain"
	"github.com/shaiso/espresso/internal/telemetry"
)

const (
	connectMaxRetries = 3
	connectRetryDelay = 2 * time.Second
)

// QueueMessage — элемент, возвращаемый QueueAdapter.PollBatch. Несёт
// delivery tag, необходимый для Ack/Nack.
type QueueMessage struct {
	Body        []byte
	ContentType string
	DeliveryTag uint64
}

// QueueAdapter — источник данных поверх очереди RabbitMQ.
//
// Соединение ленивое: устанавливается при первом вызове, требующем
// транспорт (PollBatch/HasData), а не в конструкторе. ensureConnected
// идемпотентен и при сбое повторяет попытку до connectMaxRetries раз с
// линейной задержкой connectRetryDelay, после чего возвращает false —
// транспортный сбой никогда не является фатальным на уровне adapter, он
// деградирует в "данных сейчас нет" и логируется.
//
// Единственный AMQP channel не потокобезопасен для конкурентного доступа,
// поэтому все операции над ним serialized мьютексом mu.
type QueueAdapter struct {
	id            string
	url           string
	queue         string
	prefetchCount int
	logger        *slog.Logger
	metrics       *telemetry.Metrics

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	setup   bool
}

// NewQueueAdapter создаёт adapter без установки соединения. metrics may be
// nil (e.g. in tests), in which case queue depth is never reported.
func NewQueueAdapter(def *domain.InputDefinition, logger *slog.Logger, metrics *telemetry.Metrics) *QueueAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueAdapter{
		id:            def.ID,
		url:           def.URL,
		queue:         def.Queue,
		prefetchCount: def.PrefetchCount,
		logger:        logger.With("input_id", def.ID, "queue", def.Queue),
		metrics:       metrics,
	}
}

// ensureConnected устанавливает соединение и канал, если их ещё нет или они
// закрыты. Идемпотентен: повторный вызов на живом соединении — no-op.
// Вызывающий должен держать mu.
func (a *QueueAdapter) ensureConnected() bool {
	if a.conn != nil && !a.conn.IsClosed() && a.channel != nil {
		return true
	}

	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		a.closeLocked()

		conn, err := amqp.Dial(a.url)
		if err != nil {
			a.logger.Warn("rabbitmq connect attempt failed", "attempt", attempt, "error", err)
			if attempt < connectMaxRetries {
				time.Sleep(connectRetryDelay)
			}
			continue
		}

		ch, err := conn.Channel()
		if err != nil {
			a.logger.Warn("rabbitmq channel open failed", "attempt", attempt, "error", err)
			conn.Close()
			if attempt < connectMaxRetries {
				time.Sleep(connectRetryDelay)
			}
			continue
		}

		a.conn = conn
		a.channel = ch

		if !a.setup {
			if err := a.setupQueueLocked(); err != nil {
				a.logger.Error("rabbitmq queue setup failed", "error", err)
				a.closeLocked()
				if attempt < connectMaxRetries {
					time.Sleep(connectRetryDelay)
				}
				continue
			}
			a.setup = true
		}

		a.logger.Info("connected to rabbitmq")
		return true
	}

	a.logger.Error("failed to connect to rabbitmq after retries", "retries", connectMaxRetries)
	return false
}

// setupQueueLocked declares the queue as durable and applies prefetch QoS.
// Вызывающий должен держать mu.
func (a *QueueAdapter) setupQueueLocked() error {
	if _, err := a.channel.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %q: %w", a.queue, err)
	}
	if err := a.channel.Qos(a.prefetchCount, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// closeLocked закрывает channel/connection без возврата ошибки. Вызывающий
// должен держать mu.
func (a *QueueAdapter) closeLocked() {
	if a.channel != nil {
		_ = a.channel.Close()
		a.channel = nil
	}
	if a.conn != nil && !a.conn.IsClosed() {
		_ = a.conn.Close()
	}
	a.conn = nil
}

// PollBatch issues up to n non-blocking basic_get calls. На любую ошибку
// закрывает соединение (следующий вызов переподключится с нуля) и
// возвращает то, что успело накопиться.
func (a *QueueAdapter) PollBatch(_ context.Context, n int) []domain.Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n <= 0 {
		return nil
	}

	if !a.ensureConnected() {
		a.logger.Warn("cannot poll: rabbitmq connection unavailable")
		return nil
	}

	items := make([]domain.Item, 0, n)
	for i := 0; i < n; i++ {
		delivery, ok, err := a.channel.Get(a.queue, false)
		if err != nil {
			a.logger.Error("error polling messages", "error", err)
			a.closeLocked()
			break
		}
		if !ok {
			break
		}
		items = append(items, &QueueMessage{
			Body:        delivery.Body,
			ContentType: delivery.ContentType,
			DeliveryTag: delivery.DeliveryTag,
		})
	}

	return items
}

// PollAll повторяет PollBatch, пока очередь не опустеет.
func (a *QueueAdapter) PollAll(ctx context.Context) []domain.Item {
	var all []domain.Item
	for {
		batch := a.PollBatch(ctx, pollAllBatchSize)
		if len(batch) == 0 {
			return all
		}
		all = append(all, batch...)
	}
}

// HasData использует passive queue-declare, чтобы прочитать message count
// без побочных эффектов. Если транспорт недоступен, возвращает false.
func (a *QueueAdapter) HasData(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.ensureConnected() {
		return false
	}

	queue, err := a.channel.QueueDeclarePassive(a.queue, true, false, false, false, nil)
	if err != nil {
		a.logger.Error("error checking queue status", "error", err)
		a.closeLocked()
		return false
	}

	if a.metrics != nil {
		a.metrics.InputQueueDepth.WithLabelValues(a.id).Set(float64(queue.Messages))
	}

	return queue.Messages > 0
}

// Ack подтверждает сообщение по delivery tag.
func (a *QueueAdapter) Ack(_ context.Context, item domain.Item) error {
	msg, ok := item.(*QueueMessage)
	if !ok {
		return fmt.Errorf("ack: item is not a *QueueMessage")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.channel == nil {
		return ErrNotConnected
	}
	return a.channel.Ack(msg.DeliveryTag, false)
}

// Nack отклоняет сообщение по delivery tag, опционально возвращая его в очередь.
func (a *QueueAdapter) Nack(_ context.Context, item domain.Item, requeue bool) error {
	msg, ok := item.(*QueueMessage)
	if !ok {
		return fmt.Errorf("nack: item is not a *QueueMessage")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.channel == nil {
		return ErrNotConnected
	}
	return a.channel.Nack(msg.DeliveryTag, false, requeue)
}

// Append — rabbitmq input не поддерживает программное добавление элементов.
func (a *QueueAdapter) Append(_ domain.Item) error {
	return ErrUnsupported
}

// Close закрывает соединение; используется при остановке scheduler.
func (a *QueueAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeLocked()
}
