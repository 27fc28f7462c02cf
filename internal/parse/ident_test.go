package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdent(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedIdent
		expectErr bool
	}{
		{
			name:     "Plain gauge",
			raw:      "GB0004",
			expected: ParsedIdent{Prefix: "GB", Serial: 4},
		},
		{
			name:     "Set member with GO role",
			raw:      "TG-0012-GO",
			expected: ParsedIdent{Prefix: "TG", Serial: 12, Role: "GO"},
		},
		{
			name:     "Set member with NOGO role",
			raw:      "TG-0012-NOGO",
			expected: ParsedIdent{Prefix: "TG", Serial: 12, Role: "NOGO"},
		},
		{
			name:     "Hyphenated NO-GO spelling",
			raw:      "TG-0012-NO-GO",
			expected: ParsedIdent{Prefix: "TG", Serial: 12, Role: "NOGO"},
		},
		{
			name:     "Lowercase input",
			raw:      "gb0004",
			expected: ParsedIdent{Prefix: "GB", Serial: 4},
		},
		{
			name:     "No leading zeros",
			raw:      "GB4",
			expected: ParsedIdent{Prefix: "GB", Serial: 4},
		},
		{
			name:     "Surrounding whitespace",
			raw:      "  GB0004  ",
			expected: ParsedIdent{Prefix: "GB", Serial: 4},
		},
		{
			name:      "No serial",
			raw:       "GAUGE",
			expectErr: true,
		},
		{
			name:      "Empty string",
			raw:       "",
			expectErr: true,
		},
		{
			name:      "Garbage",
			raw:       "!!12ab",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseIdent(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestSetCode(t *testing.T) {
	goSide, err := ParseIdent("TG-0012-GO")
	assert.NoError(t, err)
	noGoSide, err := ParseIdent("TG-12-NOGO")
	assert.NoError(t, err)

	// Both halves of a set resolve to the same grouping code.
	assert.Equal(t, "TG-0012", goSide.SetCode())
	assert.Equal(t, goSide.SetCode(), noGoSide.SetCode())
}
