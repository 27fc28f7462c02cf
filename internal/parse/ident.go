package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identRe = regexp.MustCompile(`(?i)^([A-Z]+)[-\s]?0*(\d+)(?:[-\s]?(GO|NOGO|NO-GO))?$`)

// ParsedIdent holds the structured data parsed from a gauge business
// identifier such as "GB0004" or "TG-0012-GO".
type ParsedIdent struct {
	Prefix string
	Serial int
	// Role is "GO" or "NOGO" for gauges that belong to a GO/NO-GO set,
	// empty otherwise.
	Role string
}

// ParseIdent extracts the prefix, serial number, and optional set role from a
// raw gauge identifier. Leading zeros in the serial are not significant and
// the role suffix accepts both "NOGO" and "NO-GO" spellings.
func ParseIdent(raw string) (ParsedIdent, error) {
	s := strings.TrimSpace(raw)
	m := identRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedIdent{}, fmt.Errorf("unable to parse gauge identifier: %q", raw)
	}

	serial, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedIdent{}, fmt.Errorf("unable to parse serial in identifier %q: %w", raw, err)
	}

	role := strings.ToUpper(m[3])
	if role == "NO-GO" {
		role = "NOGO"
	}

	return ParsedIdent{
		Prefix: strings.ToUpper(m[1]),
		Serial: serial,
		Role:   role,
	}, nil
}

// SetCode derives the set grouping code for a parsed identifier, e.g. both
// "TG-0012-GO" and "TG-0012-NOGO" map to "TG-0012".
func (p ParsedIdent) SetCode() string {
	return fmt.Sprintf("%s-%04d", p.Prefix, p.Serial)
}
