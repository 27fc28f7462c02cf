package status

// Display describes how a status is presented in the UI. This feeds view
// rendering directly, so lookups fall back to a generic presentation instead
// of failing on an unknown value.
type Display struct {
	Label    string `json:"label"`
	CSSClass string `json:"cssClass"`
	Icon     string `json:"icon"`
}

var statusDisplays = map[Status]Display{
	Available:          {Label: "Available", CSSClass: "status-available", Icon: "check-circle"},
	CheckedOut:         {Label: "Checked Out", CSSClass: "status-checked-out", Icon: "user"},
	CalibrationDue:     {Label: "Calibration Due", CSSClass: "status-calibration-due", Icon: "clock"},
	OutOfService:       {Label: "Out of Service", CSSClass: "status-out-of-service", Icon: "x-circle"},
	PendingUnseal:      {Label: "Pending Unseal", CSSClass: "status-pending", Icon: "lock"},
	Retired:            {Label: "Retired", CSSClass: "status-retired", Icon: "archive"},
	OutForCalibration:  {Label: "Out for Calibration", CSSClass: "status-calibration", Icon: "truck"},
	PendingCertificate: {Label: "Pending Certificate", CSSClass: "status-pending", Icon: "file-text"},
	PendingRelease:     {Label: "Pending Release", CSSClass: "status-pending", Icon: "clipboard"},
	Returned:           {Label: "Returned", CSSClass: "status-returned", Icon: "rotate-ccw"},
}

var sealDisplays = map[SealStatus]Display{
	Sealed:        {Label: "Sealed", CSSClass: "seal-sealed", Icon: "lock"},
	Unsealed:      {Label: "Unsealed", CSSClass: "seal-unsealed", Icon: "unlock"},
	NotApplicable: {Label: "N/A", CSSClass: "seal-na", Icon: "minus"},
}

var unknownDisplay = Display{Label: "Unknown", CSSClass: "status-unknown", Icon: "help-circle"}

// GetDisplay returns the presentation for a status, falling back to a generic
// "Unknown" entry for values outside the enumeration.
func GetDisplay(s Status) Display {
	if d, ok := statusDisplays[s]; ok {
		return d
	}
	return unknownDisplay
}

// GetSealDisplay returns the presentation for a seal status.
func GetSealDisplay(s SealStatus) Display {
	if d, ok := sealDisplays[s]; ok {
		return d
	}
	return unknownDisplay
}
