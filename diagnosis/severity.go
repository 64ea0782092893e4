// Package diagnosis classifies anemia severity from an altitude-corrected
// hemoglobin reading and the patient's age and physiological state.
// Classification is a pure function over static rule tables.
package diagnosis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the closed set of classification outcomes
type Severity int

const (
	// SeverityNone means no anemia (healthy)
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
	// SeverityAnemia is the ungraded label used for infants under 6 months
	SeverityAnemia
	// SeverityIndeterminate means no rule row applied to the patient
	SeverityIndeterminate
)

var severityNames = map[Severity]string{
	SeverityNone:          "NONE",
	SeverityMild:          "MILD",
	SeverityModerate:      "MODERATE",
	SeveritySevere:        "SEVERE",
	SeverityAnemia:        "ANEMIA",
	SeverityIndeterminate: "INDETERMINATE",
}

var severityLabels = map[Severity]string{
	SeverityNone:          "Sin anemia",
	SeverityMild:          "Anemia leve",
	SeverityModerate:      "Anemia moderada",
	SeveritySevere:        "Anemia severa",
	SeverityAnemia:        "Anemia",
	SeverityIndeterminate: "Indeterminado",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Label returns the display text shown to clinicians
func (s Severity) Label() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return s.String()
}

// Rank orders severities from healthy (0) to severe (3). The ungraded
// infant label ranks with mild. Indeterminate has rank -1.
func (s Severity) Rank() int {
	switch s {
	case SeverityNone:
		return 0
	case SeverityMild, SeverityAnemia:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return -1
	}
}

// IsAnemic reports whether the severity denotes any degree of anemia
func (s Severity) IsAnemic() bool {
	return s.Rank() > 0
}

// ParseSeverity accepts the enum names, case-insensitively
func ParseSeverity(value string) (Severity, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for severity, name := range severityNames {
		if name == normalized {
			return severity, nil
		}
	}
	return SeverityIndeterminate, fmt.Errorf("unknown severity %q", value)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("severity must be a string: %w", err)
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
