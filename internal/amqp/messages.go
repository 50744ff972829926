package amqp

import (
	"encoding/json"
	"time"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventCreated  EventType = "created"
	EventDeleted  EventType = "deleted"
	EventCleared  EventType = "cleared"
	EventImported EventType = "imported"
)

// LedgerEvent is the audit message published after every mutation.
// Only the fields relevant to the event type are set.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Policy    string    `json:"policy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCreatedEvent(id string, at time.Time) LedgerEvent {
	return LedgerEvent{Type: EventCreated, ID: id, Timestamp: at}
}

func NewDeletedEvent(id string, at time.Time) LedgerEvent {
	return LedgerEvent{Type: EventDeleted, ID: id, Timestamp: at}
}

func NewClearedEvent(at time.Time) LedgerEvent {
	return LedgerEvent{Type: EventCleared, Timestamp: at}
}

func NewImportedEvent(count int, policy string, at time.Time) LedgerEvent {
	return LedgerEvent{Type: EventImported, Count: count, Policy: policy, Timestamp: at}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event published by ToJSON.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
