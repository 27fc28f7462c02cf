package events

import (
	"context"
	"time"

	"gauge-erp-backend/internal/status"
)

// GaugeUpdated is the GAUGE_UPDATED domain event emitted after a status
// transition is persisted.
type GaugeUpdated struct {
	GaugeID   int64         `json:"gaugeId"`
	OldStatus status.Status `json:"oldStatus"`
	NewStatus status.Status `json:"newStatus"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher is a fire-and-forget notification channel. Delivery is not part
// of any consistency contract: callers log publish failures and move on.
type Publisher interface {
	Publish(ctx context.Context, event GaugeUpdated) error
}

// Nop is the publisher used when no event bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, GaugeUpdated) error { return nil }
