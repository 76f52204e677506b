package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgethub/internal/sheets"
)

var ErrInvalidMessage = errors.New("invalid sync request")

// SyncRequestMessage asks a worker to push or pull one budget. It carries
// only the id; the worker loads the document itself.
type SyncRequestMessage struct {
	BudgetID  string `json:"budgetId"`
	Direction string `json:"direction"`
	// AutoApply saves pulled changes without review.
	AutoApply bool      `json:"autoApply,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncRequestMessage(budgetID, direction string, autoApply bool) *SyncRequestMessage {
	return &SyncRequestMessage{
		BudgetID:  budgetID,
		Direction: direction,
		AutoApply: autoApply,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages no worker could act on.
func (m *SyncRequestMessage) Validate() error {
	if strings.TrimSpace(m.BudgetID) == "" {
		return fmt.Errorf("%w: empty budget id", ErrInvalidMessage)
	}
	switch m.Direction {
	case sheets.DirectionPush, sheets.DirectionPull:
		return nil
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidMessage, m.Direction)
	}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON decodes and validates a message body.
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
