package status

// SealedNote is surfaced when a sealed gauge is otherwise free to check out.
const SealedNote = "seal will be unsealed on first use"

// Eligibility is the answer to "can this gauge be checked out right now".
// Reason is nil when checkout is allowed, except for sealed gauges where it
// carries an informational note.
type Eligibility struct {
	CanCheckout bool    `json:"canCheckout"`
	Reason      *string `json:"reason"`
}

// CanCheckout derives checkout eligibility from the current status. Every
// status must have an explicit branch here; anything unrecognized falls
// through to "Unknown status" so a new enum value fails loud instead of
// silently allowing a checkout.
func CanCheckout(st Status, seal SealStatus) Eligibility {
	switch st {
	case Available:
		if seal == Sealed {
			note := SealedNote
			return Eligibility{CanCheckout: true, Reason: &note}
		}
		return Eligibility{CanCheckout: true}
	case CheckedOut:
		return denied("Already checked out")
	case CalibrationDue:
		return denied("Calibration overdue")
	case OutOfService:
		return denied("Out of service")
	default:
		return denied("Unknown status")
	}
}

func denied(reason string) Eligibility {
	return Eligibility{CanCheckout: false, Reason: &reason}
}
