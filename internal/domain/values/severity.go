package values

import (
	"fmt"
	"strings"

	"github.com/caldermont/data-governance-backend/internal/domain/errors"
)

// Severity represents how serious a detected gap is
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// NewSeverity parses and validates a severity string
func NewSeverity(s string) (Severity, error) {
	normalized := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRanks[normalized]; !ok {
		return "", errors.NewValidationError("UNSUPPORTED_SEVERITY",
			fmt.Sprintf("severity '%s' is not supported", s))
	}
	return normalized, nil
}

func (s Severity) String() string {
	return string(s)
}

// Rank returns the ordinal position of the severity, higher is more severe.
// Unknown severities rank below LOW.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether s is at least as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// IsValid reports whether the severity is one of the closed set
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// PriorityLevel classifies a priority score into a remediation tier
type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "LOW"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityCritical PriorityLevel = "CRITICAL"
)

// Priority score thresholds on the capped [0, 375] scale
const (
	PriorityCriticalThreshold = 300.0
	PriorityHighThreshold     = 200.0
	PriorityMediumThreshold   = 100.0
)

// PriorityLevelForScore maps a capped priority score to its level
func PriorityLevelForScore(score float64) PriorityLevel {
	switch {
	case score >= PriorityCriticalThreshold:
		return PriorityCritical
	case score >= PriorityHighThreshold:
		return PriorityHigh
	case score >= PriorityMediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func (p PriorityLevel) String() string {
	return string(p)
}
