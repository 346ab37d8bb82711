package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage is the change-feed payload emitted after every
// successful ledger mutation. It carries only identifiers; consumers read
// the persisted document for the current state.
type LedgerEventMessage struct {
	Op        string    `json:"op"`
	TxID      string    `json:"tx_id,omitempty"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates a change-feed message for one mutation.
func NewLedgerEventMessage(op, txID, month string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Op:        op,
		TxID:      txID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
