package model

import (
	"time"

	"gauge-erp-backend/internal/status"
)

// StatusChange is the audit record of one status transition, written in the
// same transaction as the transition itself.
type StatusChange struct {
	ID        int64         `gorm:"autoIncrement;primaryKey" json:"id"`
	GaugeID   int64         `gorm:"not null;index" json:"gaugeId"`
	OldStatus status.Status `gorm:"size:32;not null" json:"oldStatus"`
	NewStatus status.Status `gorm:"size:32;not null" json:"newStatus"`
	ChangedAt time.Time     `gorm:"not null;index" json:"changedAt"`
}
