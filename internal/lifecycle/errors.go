package lifecycle

import (
	"fmt"

	"gauge-erp-backend/internal/status"
)

// InvalidTransitionError is returned when a workflow operation is applied to
// a gauge whose current status does not permit it.
type InvalidTransitionError struct {
	GaugeID int64
	From    status.Status
	Op      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("gauge %d cannot %s from status %q", e.GaugeID, e.Op, e.From)
}

// NotEligibleError is returned when a checkout is attempted on a gauge that
// the eligibility check rejects.
type NotEligibleError struct {
	GaugeID int64
	Reason  string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("gauge %d is not eligible for checkout: %s", e.GaugeID, e.Reason)
}
