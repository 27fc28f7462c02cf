package lifecycle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gauge-erp-backend/internal/events"
	"gauge-erp-backend/internal/status"
	"gauge-erp-backend/internal/store"
)

// Service owns every status mutation of a gauge: validated transitions, the
// checkout and calibration workflows, and batch reconciliation.
type Service struct {
	store     store.Store
	publisher events.Publisher
	log       logrus.FieldLogger

	// now is injectable so due-date behavior is testable.
	now func() time.Time

	// notifyAvailable, when set, is called with a gauge ID whenever that
	// gauge transitions back to available.
	notifyAvailable func(gaugeID int64)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAvailabilityNotifier registers a hook invoked when a gauge becomes
// available again, typically wired to the push-notification worker pool.
func WithAvailabilityNotifier(fn func(gaugeID int64)) Option {
	return func(s *Service) { s.notifyAvailable = fn }
}

// NewService creates the lifecycle service.
func NewService(st store.Store, pub events.Publisher, log logrus.FieldLogger, opts ...Option) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Service{
		store:     st,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateStatus validates and persists a status change for one gauge.
//
// The optional tx composes the change with other writes in the caller's
// transaction; the current status is read through the same handle so the
// caller's prior writes are visible. Equal old and new status is a no-op:
// nothing is written and no event is emitted. Event publishing is
// best-effort; a publish failure is logged and never fails the operation.
func (s *Service) UpdateStatus(ctx context.Context, gaugeID int64, newStatus status.Status, tx *gorm.DB) (status.Status, error) {
	applied, event, err := s.applyStatus(ctx, gaugeID, newStatus, tx)
	if err != nil {
		return "", err
	}
	if event != nil {
		s.emit(ctx, *event)
	}
	return applied, nil
}

// applyStatus performs the validated write without any side effects. It
// returns a nil event for a no-op. The workflow operations call it inside
// their transactions and emit only after the transaction commits, so the
// side channel never reports a transition that was rolled back.
func (s *Service) applyStatus(ctx context.Context, gaugeID int64, newStatus status.Status, tx *gorm.DB) (status.Status, *events.GaugeUpdated, error) {
	if !newStatus.Valid() {
		return "", nil, &status.InvalidStatusError{Value: string(newStatus)}
	}

	current, err := s.store.GetGaugeStatus(ctx, tx, gaugeID)
	if err != nil {
		return "", nil, err
	}
	if current == newStatus {
		return current, nil, nil
	}

	now := s.now().UTC()
	if err := s.store.SetGaugeStatus(ctx, tx, gaugeID, current, newStatus, now); err != nil {
		return "", nil, err
	}

	return newStatus, &events.GaugeUpdated{
		GaugeID:   gaugeID,
		OldStatus: current,
		NewStatus: newStatus,
		Timestamp: now,
	}, nil
}

// emit publishes, logs, and dispatches availability notifications for one
// committed transition.
func (s *Service) emit(ctx context.Context, event events.GaugeUpdated) {
	s.publish(ctx, event)

	s.log.WithFields(logrus.Fields{
		"gauge_id":   event.GaugeID,
		"old_status": event.OldStatus,
		"new_status": event.NewStatus,
	}).Info("gauge status changed")

	if event.NewStatus == status.Available && s.notifyAvailable != nil {
		s.notifyAvailable(event.GaugeID)
	}
}

// publish emits a domain event on the best-effort side channel.
func (s *Service) publish(ctx context.Context, event events.GaugeUpdated) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithFields(logrus.Fields{
			"gauge_id": event.GaugeID,
			"error":    err,
		}).Warn("failed to publish gauge event")
	}
}

// ReconcileResult reports how many gauges a reconciliation run examined and
// how many it corrected.
type ReconcileResult struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
}

// Reconcile re-evaluates the status of every active gauge and corrects any
// drift between the computed and stored status in a single batch write.
// Gauges parked in an explicit workflow step are examined but never touched,
// since the calculation cannot produce those statuses. Running it twice with
// no intervening change updates nothing the second time.
func (s *Service) Reconcile(ctx context.Context) (ReconcileResult, error) {
	gauges, err := s.store.ListActiveGauges(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}

	now := s.now().UTC()
	var updates []store.StatusUpdate
	var becameAvailable []int64
	for _, g := range gauges {
		if !status.Calculable(g.Status) {
			continue
		}
		target := status.Calculate(g.Snapshot(), now)
		if target == g.Status {
			continue
		}
		updates = append(updates, store.StatusUpdate{
			GaugeID:   g.ID,
			OldStatus: g.Status,
			NewStatus: target,
		})
		if target == status.Available {
			becameAvailable = append(becameAvailable, g.ID)
		}
	}

	if err := s.store.BatchSetStatuses(ctx, updates, now); err != nil {
		return ReconcileResult{}, err
	}

	if s.notifyAvailable != nil {
		for _, id := range becameAvailable {
			s.notifyAvailable(id)
		}
	}

	result := ReconcileResult{Total: len(gauges), Updated: len(updates)}
	s.log.WithFields(logrus.Fields{
		"total":   result.Total,
		"updated": result.Updated,
	}).Info("status reconciliation finished")
	return result, nil
}
