package store

import "gauge-erp-backend/internal/status"

// StatusUpdate is one pending correction produced by reconciliation.
type StatusUpdate struct {
	GaugeID   int64
	OldStatus status.Status
	NewStatus status.Status
}
