package model

import (
	"time"

	"gauge-erp-backend/internal/status"
)

// Gauge represents one physical measuring instrument or tool.
type Gauge struct {
	ID                 int64             `gorm:"primaryKey" json:"id"`
	Ident              string            `gorm:"uniqueIndex;size:64;not null" json:"ident"` // Business identifier, e.g. "GB0004"
	Status             status.Status     `gorm:"size:32;not null;default:'available'" json:"status"`
	SealStatus         status.SealStatus `gorm:"size:32;not null;default:'not_applicable'" json:"sealStatus"`
	Condition          status.Condition  `gorm:"size:32;not null;default:'ok'" json:"condition"`
	SetID              *int64            `gorm:"index" json:"setId,omitempty"`
	SetRole            string            `gorm:"size:8" json:"setRole,omitempty"` // "GO" or "NOGO" when part of a set
	CheckedOutTo       *int64            `gorm:"index" json:"checkedOutTo,omitempty"`
	CalibrationDueDate *time.Time        `json:"calibrationDueDate,omitempty"`
	Active             bool              `gorm:"not null;default:true;index" json:"active"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`

	// Associations
	Set    *GaugeSet `gorm:"foreignKey:SetID" json:"-"`
	Holder *User     `gorm:"foreignKey:CheckedOutTo" json:"-"`
}

// Snapshot extracts the raw attributes the status calculation reads.
func (g Gauge) Snapshot() status.Snapshot {
	return status.Snapshot{
		Condition:          g.Condition,
		CalibrationDueDate: g.CalibrationDueDate,
		HolderID:           g.CheckedOutTo,
	}
}

// GaugeSet groups a GO gauge with its NO-GO companion.
type GaugeSet struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Associations
	Gauges []Gauge `gorm:"foreignKey:SetID" json:"-"`
}
