package domain

// InputType — конкретный вид источника данных.
type InputType string

const (
	InputList     InputType = "list"
	InputRabbitMQ InputType = "rabbitmq"
)

// Item — единица данных, проходящая через input adapter. Для list input
// это произвольное значение, добавленное через Append; для rabbitmq —
// указатель на сообщение с delivery tag (см. internal/input.QueueMessage).
type Item = any

// InputDefinition — неизменяемое определение input, разобранное из конфигурации.
type InputDefinition struct {
	ID   string
	Type InputType

	// Items — начальное содержимое list input.
	Items []Item

	// URL, Queue, PrefetchCount — конфигурация rabbitmq input.
	URL           string
	Queue         string
	PrefetchCount int
}

// DefaultPrefetchCount — значение по умолчанию для rabbitmq input.
const DefaultPrefetchCount = 10

// ApplyDefaults заполняет нулевые поля значениями по умолчанию.
func (d *InputDefinition) ApplyDefaults() {
	if d.Type == InputRabbitMQ && d.PrefetchCount <= 0 {
		d.PrefetchCount = DefaultPrefetchCount
	}
}
