package lifecycle

import (
	"context"

	"gorm.io/gorm"

	"gauge-erp-backend/internal/events"
	"gauge-erp-backend/internal/model"
	"gauge-erp-backend/internal/status"
)

// Checkout assigns a gauge (and its GO/NO-GO companions, if it belongs to a
// set) to a holder. Sealed gauges are unsealed on first use. The holder
// assignment, unsealing, and status change commit in one transaction.
func (s *Service) Checkout(ctx context.Context, gaugeID, userID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}

	gauges := []model.Gauge{g}
	if g.SetID != nil {
		companions, err := s.store.SetCompanions(ctx, *g.SetID, g.ID)
		if err != nil {
			return err
		}
		gauges = append(gauges, companions...)
	}

	// Every member of the set must be eligible before any of them moves.
	for _, member := range gauges {
		if elig := status.CanCheckout(member.Status, member.SealStatus); !elig.CanCheckout {
			reason := "Unknown status"
			if elig.Reason != nil {
				reason = *elig.Reason
			}
			return &NotEligibleError{GaugeID: member.ID, Reason: reason}
		}
	}

	var pending []events.GaugeUpdated
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		for _, member := range gauges {
			if err := s.store.SetHolder(ctx, tx, member.ID, &userID); err != nil {
				return err
			}
			if member.SealStatus == status.Sealed {
				if err := s.store.SetSealStatus(ctx, tx, member.ID, status.Unsealed); err != nil {
					return err
				}
			}
			_, event, err := s.applyStatus(ctx, member.ID, status.CheckedOut, tx)
			if err != nil {
				return err
			}
			if event != nil {
				pending = append(pending, *event)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, event := range pending {
		s.emit(ctx, event)
	}
	return nil
}

// Checkin releases a checked-out gauge back from its holder. The gauge lands
// in returned, pending QC inspection, rather than going straight back to
// available. Set companions held by the same user come back together.
func (s *Service) Checkin(ctx context.Context, gaugeID int64) error {
	g, err := s.store.GetGauge(ctx, gaugeID)
	if err != nil {
		return err
	}
	if g.Status != status.CheckedOut {
		return &InvalidTransitionError{GaugeID: g.ID, From: g.Status, Op: "check in"}
	}

	gauges := []model.Gauge{g}
	if g.SetID != nil && g.CheckedOutTo != nil {
		companions, err := s.store.SetCompanions(ctx, *g.SetID, g.ID)
		if err != nil {
			return err
		}
		for _, c := range companions {
			if c.Status == status.CheckedOut && c.CheckedOutTo != nil && *c.CheckedOutTo == *g.CheckedOutTo {
				gauges = append(gauges, c)
			}
		}
	}

	var pending []events.GaugeUpdated
	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		for _, member := range gauges {
			if err := s.store.SetHolder(ctx, tx, member.ID, nil); err != nil {
				return err
			}
			_, event, err := s.applyStatus(ctx, member.ID, status.Returned, tx)
			if err != nil {
				return err
			}
			if event != nil {
				pending = append(pending, *event)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, event := range pending {
		s.emit(ctx, event)
	}
	return nil
}
