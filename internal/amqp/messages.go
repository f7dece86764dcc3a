package amqp

import (
	"encoding/json"
	"time"

	"spendbook/internal/notify"
)

// NotificationMessage is the wire form of a notify.Notification.
type NotificationMessage struct {
	ID        string      `json:"id"`
	Kind      notify.Kind `json:"kind"`
	Message   string      `json:"message"`
	ExpenseID string      `json:"expense_id,omitempty"`
	Error     string      `json:"error,omitempty"`
	At        time.Time   `json:"at"`
	Until     time.Time   `json:"until,omitzero"`
}

// NewNotificationMessage copies n into its wire form.
func NewNotificationMessage(n notify.Notification) *NotificationMessage {
	return &NotificationMessage{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		ExpenseID: n.ExpenseID,
		Error:     n.Err,
		At:        n.At,
		Until:     n.Until,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON parses a message published by PublishNotification.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
