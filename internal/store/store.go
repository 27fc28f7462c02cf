package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gauge-erp-backend/internal/model"
	"gauge-erp-backend/internal/status"
)

// Store defines the interface for all database operations the status engine
// needs. Methods taking a tx compose with an externally-managed transaction;
// passing nil uses the store's own connection.
type Store interface {
	DB() *gorm.DB
	GetGauge(ctx context.Context, id int64) (model.Gauge, error)
	GetGaugeByIdent(ctx context.Context, ident string) (model.Gauge, error)
	GetGaugeStatus(ctx context.Context, tx *gorm.DB, id int64) (status.Status, error)
	SetGaugeStatus(ctx context.Context, tx *gorm.DB, id int64, from, to status.Status, at time.Time) error
	SetHolder(ctx context.Context, tx *gorm.DB, id int64, holderID *int64) error
	SetSealStatus(ctx context.Context, tx *gorm.DB, id int64, seal status.SealStatus) error
	SetCalibrationDueDate(ctx context.Context, tx *gorm.DB, id int64, due time.Time) error
	ListActiveGauges(ctx context.Context) ([]model.Gauge, error)
	ListGaugesByStatus(ctx context.Context, st status.Status) ([]model.Gauge, error)
	SetCompanions(ctx context.Context, setID int64, excludeGaugeID int64) ([]model.Gauge, error)
	BatchSetStatuses(ctx context.Context, updates []StatusUpdate, at time.Time) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// handle resolves the database handle for a possibly-nil caller transaction.
func (s *gormStore) handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *gormStore) GetGauge(ctx context.Context, id int64) (model.Gauge, error) {
	var g model.Gauge
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return model.Gauge{}, fmt.Errorf("failed to fetch gauge %d: %w", id, err)
	}
	return g, nil
}

func (s *gormStore) GetGaugeByIdent(ctx context.Context, ident string) (model.Gauge, error) {
	var g model.Gauge
	if err := s.db.WithContext(ctx).First(&g, "ident = ?", ident).Error; err != nil {
		return model.Gauge{}, fmt.Errorf("failed to fetch gauge %q: %w", ident, err)
	}
	return g, nil
}

// GetGaugeStatus reads the stored status, within the caller's transaction if
// one is supplied so a composed write sees its own prior writes.
func (s *gormStore) GetGaugeStatus(ctx context.Context, tx *gorm.DB, id int64) (status.Status, error) {
	var g model.Gauge
	if err := s.handle(ctx, tx).Select("status").First(&g, id).Error; err != nil {
		return "", fmt.Errorf("failed to read status of gauge %d: %w", id, err)
	}
	return g.Status, nil
}

// SetGaugeStatus persists a status change together with its audit record.
// The two writes always commit or fail as one: without a caller transaction
// the store opens its own, so a failed audit insert cannot leave a silently
// changed status behind.
func (s *gormStore) SetGaugeStatus(ctx context.Context, tx *gorm.DB, id int64, from, to status.Status, at time.Time) error {
	write := func(h *gorm.DB) error {
		if err := h.Model(&model.Gauge{}).Where("id = ?", id).Update("status", to).Error; err != nil {
			return fmt.Errorf("failed to update status of gauge %d: %w", id, err)
		}
		change := model.StatusChange{GaugeID: id, OldStatus: from, NewStatus: to, ChangedAt: at}
		if err := h.Create(&change).Error; err != nil {
			return fmt.Errorf("failed to record status change for gauge %d: %w", id, err)
		}
		return nil
	}
	if tx != nil {
		return write(tx)
	}
	return s.db.WithContext(ctx).Transaction(write)
}

func (s *gormStore) SetHolder(ctx context.Context, tx *gorm.DB, id int64, holderID *int64) error {
	if err := s.handle(ctx, tx).Model(&model.Gauge{}).Where("id = ?", id).Update("checked_out_to", holderID).Error; err != nil {
		return fmt.Errorf("failed to update holder of gauge %d: %w", id, err)
	}
	return nil
}

func (s *gormStore) SetSealStatus(ctx context.Context, tx *gorm.DB, id int64, seal status.SealStatus) error {
	if err := s.handle(ctx, tx).Model(&model.Gauge{}).Where("id = ?", id).Update("seal_status", seal).Error; err != nil {
		return fmt.Errorf("failed to update seal status of gauge %d: %w", id, err)
	}
	return nil
}

func (s *gormStore) SetCalibrationDueDate(ctx context.Context, tx *gorm.DB, id int64, due time.Time) error {
	if err := s.handle(ctx, tx).Model(&model.Gauge{}).Where("id = ?", id).Update("calibration_due_date", due).Error; err != nil {
		return fmt.Errorf("failed to update calibration due date of gauge %d: %w", id, err)
	}
	return nil
}

// ListActiveGauges fetches every gauge that has not been soft-deleted, with
// the raw attributes the status calculation needs.
func (s *gormStore) ListActiveGauges(ctx context.Context) ([]model.Gauge, error) {
	var gauges []model.Gauge
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&gauges).Error; err != nil {
		return nil, fmt.Errorf("failed to list active gauges: %w", err)
	}
	return gauges, nil
}

func (s *gormStore) ListGaugesByStatus(ctx context.Context, st status.Status) ([]model.Gauge, error) {
	var gauges []model.Gauge
	if err := s.db.WithContext(ctx).Where("active = ? AND status = ?", true, st).Find(&gauges).Error; err != nil {
		return nil, fmt.Errorf("failed to list gauges with status %s: %w", st, err)
	}
	return gauges, nil
}

// SetCompanions returns the other gauges in a set, i.e. the GO or NO-GO
// counterparts of the given gauge.
func (s *gormStore) SetCompanions(ctx context.Context, setID int64, excludeGaugeID int64) ([]model.Gauge, error) {
	var gauges []model.Gauge
	if err := s.db.WithContext(ctx).
		Where("set_id = ? AND id <> ? AND active = ?", setID, excludeGaugeID, true).
		Find(&gauges).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch companions in set %d: %w", setID, err)
	}
	return gauges, nil
}

// BatchSetStatuses applies all reconciliation corrections in one transaction:
// a single grouped write per target status plus the batched audit rows, not
// one round-trip per gauge.
func (s *gormStore) BatchSetStatuses(ctx context.Context, updates []StatusUpdate, at time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	byStatus := make(map[status.Status][]int64)
	changes := make([]model.StatusChange, 0, len(updates))
	for _, u := range updates {
		byStatus[u.NewStatus] = append(byStatus[u.NewStatus], u.GaugeID)
		changes = append(changes, model.StatusChange{
			GaugeID:   u.GaugeID,
			OldStatus: u.OldStatus,
			NewStatus: u.NewStatus,
			ChangedAt: at,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for st, ids := range byStatus {
			if err := tx.Model(&model.Gauge{}).Where("id IN ?", ids).Update("status", st).Error; err != nil {
				return fmt.Errorf("failed to batch update %d gauges to %s: %w", len(ids), st, err)
			}
		}
		if err := tx.CreateInBatches(&changes, 200).Error; err != nil {
			return fmt.Errorf("failed to record batch status changes: %w", err)
		}
		return nil
	})
}
