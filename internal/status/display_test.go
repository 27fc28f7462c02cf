package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDisplay_CoversEveryStatus(t *testing.T) {
	for _, s := range All() {
		d := GetDisplay(s)
		assert.NotEmpty(t, d.Label, "status %q has no label", s)
		assert.NotEmpty(t, d.CSSClass, "status %q has no css class", s)
		assert.NotEmpty(t, d.Icon, "status %q has no icon", s)
		assert.NotEqual(t, unknownDisplay, d, "status %q fell back to the unknown display", s)
	}
}

// Display lookups feed the view layer, so unknown values must degrade
// gracefully instead of panicking.
func TestGetDisplay_UnknownFallback(t *testing.T) {
	d := GetDisplay(Status("whatever"))
	assert.Equal(t, "Unknown", d.Label)
	assert.Equal(t, "status-unknown", d.CSSClass)
}

func TestGetSealDisplay(t *testing.T) {
	assert.Equal(t, "Sealed", GetSealDisplay(Sealed).Label)
	assert.Equal(t, "Unsealed", GetSealDisplay(Unsealed).Label)
	assert.Equal(t, "N/A", GetSealDisplay(NotApplicable).Label)
	assert.Equal(t, "Unknown", GetSealDisplay(SealStatus("broken?")).Label)
}
