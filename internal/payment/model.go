package payment

import (
	"encoding/json"
	"time"
)

// Notification is one gateway notification as recorded in the log.
type Notification struct {
	ID           int64
	Provider     string
	OrderID      string
	ExtOrderID   string
	Status       string
	Payload      json.RawMessage
	State        string
	ProcessError string
	ReceivedAt   time.Time
	ProcessedAt  *time.Time
}
