// Package events publishes notifications about ledger activity to a broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleFired is emitted after a recurring schedule materialized a movement.
type ScheduleFired struct {
	ScheduleID  string          `json:"schedule_id"`
	Kind        string          `json:"kind"`
	AccountID   string          `json:"account_id"`
	ToAccountID string          `json:"to_account_id,omitempty"`
	MovementID  string          `json:"movement_id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Deactivated bool            `json:"deactivated"`
	FiredAt     time.Time       `json:"fired_at"`
}

// ToJSON encodes the event body.
func (e ScheduleFired) ToJSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule fired event: %w", err)
	}
	return data, nil
}

// ScheduleFiredFromJSON decodes an event body.
func ScheduleFiredFromJSON(data []byte) (*ScheduleFired, error) {
	var e ScheduleFired
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal schedule fired event: %w", err)
	}
	return &e, nil
}

// Publisher delivers events. Delivery is best effort; callers log failures.
type Publisher interface {
	PublishScheduleFired(ctx context.Context, event ScheduleFired) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// PublishScheduleFired does nothing.
func (NopPublisher) PublishScheduleFired(context.Context, ScheduleFired) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
