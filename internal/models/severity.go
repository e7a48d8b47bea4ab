package models

import "fmt"

// Severity classifies how serious a finding is. Values are ordered:
// low < medium < high < critical.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities returns all severity levels in ascending order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank returns the ordinal position of a severity, with low at 0.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether s is a known severity level.
func (s Severity) IsValid() bool {
	return s.Rank() >= 0
}

// ParseSeverity converts a lowercase wire tag into a Severity.
func ParseSeverity(tag string) (Severity, error) {
	s := Severity(tag)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q", tag)
	}
	return s, nil
}
