package lifecycle

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gauge-erp-backend/internal/events"
	"gauge-erp-backend/internal/status"
)

// SendForCalibration ships a gauge to the calibration lab. Only a gauge
// sitting on the shelf (available or overdue) can be sent.
func (s *Service) SendForCalibration(ctx context.Context, gaugeID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.Available && g.Status != status.CalibrationDue {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "send for calibration"}
	}
	_, err = s.UpdateStatus(ctx, g.ID, status.OutForCalibration, nil)
	return err
}

// ReceiveFromCalibration books a gauge back in from the lab. The gauge comes
// back under a fresh seal and waits for its certificate.
func (s *Service) ReceiveFromCalibration(ctx context.Context, gaugeID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.OutForCalibration {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "receive from calibration"}
	}
	var event *events.GaugeUpdated
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if g.SealStatus != status.NotApplicable {
			if err := s.store.SetSealStatus(ctx, tx, g.ID, status.Sealed); err != nil {
				return err
			}
		}
		_, event, err = s.applyStatus(ctx, g.ID, status.PendingCertificate, tx)
		return err
	})
	if err != nil {
		return err
	}
	if event != nil {
		s.emit(ctx, *event)
	}
	return nil
}

// AttachCertificate records the calibration certificate and its new due date,
// moving the gauge to pending_release for QC review.
func (s *Service) AttachCertificate(ctx context.Context, gaugeID int64, newDueDate time.Time) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.PendingCertificate {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "attach certificate"}
	}
	var event *events.GaugeUpdated
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.store.SetCalibrationDueDate(ctx, tx, g.ID, newDueDate); err != nil {
			return err
		}
		_, event, err = s.applyStatus(ctx, g.ID, status.PendingRelease, tx)
		return err
	})
	if err != nil {
		return err
	}
	if event != nil {
		s.emit(ctx, *event)
	}
	return nil
}

// QCReview resolves a gauge waiting on inspection, either freshly returned
// from a holder or pending release after calibration. Approval recomputes the
// base status from the gauge's raw attributes; rejection quarantines it.
func (s *Service) QCReview(ctx context.Context, gaugeID int64, approved bool) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.Returned && g.Status != status.PendingRelease {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "QC review"}
	}

	if !approved {
		var event *events.GaugeUpdated
		err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
			if err := tx.Model(&g).Update("condition", status.ConditionQuarantined).Error; err != nil {
				return err
			}
			_, event, err = s.applyStatus(ctx, g.ID, status.OutOfService, tx)
			return err
		})
		if err != nil {
			return err
		}
		if event != nil {
			s.emit(ctx, *event)
		}
		return nil
	}

	// Recompute from raw attributes so a certificate attached moments
	// earlier yields available rather than calibration_due.
	target := status.Calculate(g.Snapshot(), s.now())
	_, err = s.UpdateStatus(ctx, g.ID, target, nil)
	return err
}

// RequestUnseal flags a sealed gauge for unsealing approval.
func (s *Service) RequestUnseal(ctx context.Context, gaugeID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.SealStatus != status.Sealed {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "request unseal"}
	}
	if g.Status != status.Available {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "request unseal"}
	}
	_, err = s.UpdateStatus(ctx, g.ID, status.PendingUnseal, nil)
	return err
}

// ApproveUnseal breaks the seal and puts the gauge back in circulation.
func (s *Service) ApproveUnseal(ctx context.Context, gaugeID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.PendingUnseal {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "approve unseal"}
	}
	var event *events.GaugeUpdated
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.store.SetSealStatus(ctx, tx, g.ID, status.Unsealed); err != nil {
			return err
		}
		target := status.Calculate(g.Snapshot(), s.now())
		_, event, err = s.applyStatus(ctx, g.ID, target, tx)
		return err
	})
	if err != nil {
		return err
	}
	if event != nil {
		s.emit(ctx, *event)
	}
	return nil
}
