// Package amqp publishes ledger events to a topic exchange. Consumers are
// external; this service only produces.
package amqp

import (
	"encoding/json"
	"time"

	"finanzas/internal/core"
)

// Routing keys per event.
const (
	KeyTransactionCreated = "transaction.created"
	KeyTransactionDeleted = "transaction.deleted"
	KeyRecurrenceFired    = "recurrence.fired"
)

// TransactionEvent describes a created or deleted transaction. Deleted
// events carry only the id and kind.
type TransactionEvent struct {
	UserID    string    `json:"userId"`
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCreatedEvent(userID string, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		UserID:    userID,
		ID:        t.ID,
		Kind:      string(t.Kind),
		Amount:    t.Amount.String(),
		Category:  t.Category,
		Timestamp: time.Now(),
	}
}

func NewDeletedEvent(userID string, kind core.Kind, id string) *TransactionEvent {
	return &TransactionEvent{
		UserID:    userID,
		ID:        id,
		Kind:      string(kind),
		Timestamp: time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecurrenceEvent reports how many templates of one kind fired in a cycle
// sweep for one user.
type RecurrenceEvent struct {
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecurrenceEvent(userID string, kind core.Kind, count int) *RecurrenceEvent {
	return &RecurrenceEvent{
		UserID:    userID,
		Kind:      string(kind),
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (e *RecurrenceEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
