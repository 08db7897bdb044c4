package input

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/espresso/internal/domain"
)

func TestNewManager_UnknownType(t *testing.T) {
	defs := []*domain.InputDefinition{{ID: "bad", Type: "carrier-pigeon"}}
	_, err := NewManager(defs, nil, nil)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestManager_Poll_OnlyReturnsNonEmptyInputs(t *testing.T) {
	defs := []*domain.InputDefinition{
		{ID: "has-data", Type: domain.InputList, Items: []domain.Item{1, 2}},
		{ID: "empty", Type: domain.InputList},
	}
	m, err := NewManager(defs, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := m.Poll(context.Background(), 10)
	if _, ok := results["empty"]; ok {
		t.Error("did not expect the empty input in results")
	}
	if items, ok := results["has-data"]; !ok || len(items) != 2 {
		t.Errorf("expected 2 items for has-data, got %v", items)
	}
}

func TestManager_AckBatch_NoOpForListInputs(t *testing.T) {
	defs := []*domain.InputDefinition{{ID: "l", Type: domain.InputList, Items: []domain.Item{1}}}
	m, err := NewManager(defs, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Должно не паниковать и не ошибаться — list input не знает ack.
	m.AckBatch(context.Background(), "l", []domain.Item{1})
}

func TestManager_AppendToInput_UnknownID_IsNoOp(t *testing.T) {
	m, err := NewManager(nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AppendToInput("missing", 1); err != nil {
		t.Errorf("expected nil error for unknown input id, got %v", err)
	}
}

func TestManager_AppendToInput_QueueAdapter_SwallowsErrUnsupported(t *testing.T) {
	defs := []*domain.InputDefinition{{ID: "q", Type: domain.InputRabbitMQ, URL: "amqp://unused", Queue: "unused"}}
	m, err := NewManager(defs, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AppendToInput("q", 1); err != nil {
		t.Errorf("expected ErrUnsupported to be logged and swallowed, got %v", err)
	}
}

func TestManager_HasData_UnknownID_IsFalse(t *testing.T) {
	m, err := NewManager(nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.HasData(context.Background(), "missing") {
		t.Error("expected false for unknown input id")
	}
}
