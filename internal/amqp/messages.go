package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Message kinds, carried in the AMQP "type" property.
const (
	TypeReminder     = "reminder"
	TypeExpenseEvent = "expense_event"
)

// ReminderMessage is published by the periodic reminder job.
type ReminderMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReminderMessage(message string) *ReminderMessage {
	return &ReminderMessage{Message: message, Timestamp: time.Now()}
}

type ExpenseEventType string

const (
	ExpenseCreated ExpenseEventType = "created"
	ExpenseDeleted ExpenseEventType = "deleted"
)

// ExpenseEvent announces a change to the expense ledger. Amount and
// CategoryID are empty for deletions.
type ExpenseEvent struct {
	Type       ExpenseEventType `json:"type"`
	ID         int64            `json:"id"`
	Amount     decimal.Decimal  `json:"amount"`
	CategoryID *int64           `json:"category_id"`
	Timestamp  time.Time        `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unmarshals a delivery body according to its kind. It returns a
// *ReminderMessage or an *ExpenseEvent.
func Decode(kind string, body []byte) (any, error) {
	switch kind {
	case TypeReminder:
		var msg ReminderMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	case TypeExpenseEvent:
		var ev ExpenseEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", kind)
	}
}
