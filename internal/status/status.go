package status

import (
	"fmt"
	"strings"
	"time"
)

// Status is the operational status of a gauge. It is a closed set: callers
// must never persist a value outside the declared constants.
type Status string

const (
	Available          Status = "available"
	CheckedOut         Status = "checked_out"
	CalibrationDue     Status = "calibration_due"
	OutOfService       Status = "out_of_service"
	PendingUnseal      Status = "pending_unseal"
	Retired            Status = "retired"
	OutForCalibration  Status = "out_for_calibration"
	PendingCertificate Status = "pending_certificate"
	PendingRelease     Status = "pending_release"
	Returned           Status = "returned"
)

// all is ordered the way the enumeration is declared; All returns a copy so
// callers cannot mutate it.
var all = []Status{
	Available,
	CheckedOut,
	CalibrationDue,
	OutOfService,
	PendingUnseal,
	Retired,
	OutForCalibration,
	PendingCertificate,
	PendingRelease,
	Returned,
}

// All returns every declared status value.
func All() []Status {
	out := make([]Status, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is a member of the declared enumeration.
func (s Status) Valid() bool {
	for _, v := range all {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// InvalidStatusError is returned when a caller asks for a transition to a
// value outside the enumeration. It names the allowed set so the API edge can
// surface an actionable message.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	allowed := make([]string, len(all))
	for i, v := range all {
		allowed[i] = string(v)
	}
	return fmt.Sprintf("invalid status %q: allowed values are %s", e.Value, strings.Join(allowed, ", "))
}

// SealStatus tracks whether a gauge's calibration seal is intact, separate
// from its operational status.
type SealStatus string

const (
	Sealed        SealStatus = "sealed"
	Unsealed      SealStatus = "unsealed"
	NotApplicable SealStatus = "not_applicable"
)

// Condition is the base operational flag recorded on a gauge, independent of
// its workflow status.
type Condition string

const (
	ConditionOK           Condition = "ok"
	ConditionRetired      Condition = "retired"
	ConditionLost         Condition = "lost"
	ConditionDamaged      Condition = "damaged"
	ConditionQuarantined  Condition = "quarantined"
	ConditionOutOfService Condition = "out_of_service"
)

// OutOfService reports whether the condition takes the gauge out of service
// regardless of anything else.
func (c Condition) OutOfService() bool {
	switch c {
	case ConditionRetired, ConditionLost, ConditionDamaged, ConditionQuarantined, ConditionOutOfService:
		return true
	}
	return false
}

// Snapshot is the minimal set of raw gauge attributes the status calculation
// reads. It is deliberately decoupled from the persistence model so the
// calculation stays pure.
type Snapshot struct {
	Condition          Condition
	CalibrationDueDate *time.Time
	HolderID           *int64
}

// rule is one step of the priority chain: first predicate to match wins.
type rule struct {
	matches func(Snapshot, time.Time) bool
	result  Status
}

// rules are evaluated in order. The ordering is load-bearing: an out-of-service
// condition outranks an overdue calibration, which outranks a checkout.
var rules = []rule{
	{
		matches: func(s Snapshot, _ time.Time) bool { return s.Condition.OutOfService() },
		result:  OutOfService,
	},
	{
		matches: func(s Snapshot, now time.Time) bool {
			if s.CalibrationDueDate == nil {
				return false
			}
			return truncateDay(*s.CalibrationDueDate).Before(truncateDay(now))
		},
		result: CalibrationDue,
	},
	{
		matches: func(s Snapshot, _ time.Time) bool { return s.HolderID != nil },
		result:  CheckedOut,
	},
}

// Calculate computes the status a gauge should have from its raw attributes,
// independent of what is currently stored. Pure: no I/O, no mutation.
//
// Due dates compare at day granularity with strict less-than, so a gauge due
// today is not yet overdue.
func Calculate(snap Snapshot, now time.Time) Status {
	for _, r := range rules {
		if r.matches(snap, now) {
			return r.result
		}
	}
	return Available
}

// Calculable reports whether a stored status is one the calculation can
// produce. Gauges parked in an explicit workflow step (sealing, calibration
// round-trip, QC) are managed by transitions, not by reconciliation.
func Calculable(s Status) bool {
	switch s {
	case Available, CheckedOut, CalibrationDue, OutOfService:
		return true
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
