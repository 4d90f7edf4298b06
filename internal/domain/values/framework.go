package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caldermont/data-governance-backend/internal/domain/errors"
)

// ComplianceFramework represents a supported regulatory framework
type ComplianceFramework struct {
	framework string
}

// Supported frameworks
const (
	FrameworkGDPR   = "GDPR"
	FrameworkSOC2   = "SOC2"
	FrameworkNIST   = "NIST"
	FrameworkHIPAA  = "HIPAA"
	FrameworkPCIDSS = "PCI_DSS"
)

var (
	// Map of framework to display names
	frameworkDisplayNames = map[string]string{
		FrameworkGDPR:   "General Data Protection Regulation",
		FrameworkSOC2:   "SOC 2",
		FrameworkNIST:   "NIST Cybersecurity Framework",
		FrameworkHIPAA:  "Health Insurance Portability and Accountability Act",
		FrameworkPCIDSS: "PCI Data Security Standard",
	}

	// Supported frameworks for validation
	supportedFrameworks = map[string]bool{
		FrameworkGDPR:   true,
		FrameworkSOC2:   true,
		FrameworkNIST:   true,
		FrameworkHIPAA:  true,
		FrameworkPCIDSS: true,
	}

	// Frameworks that impose statutory remediation deadlines
	deadlineDrivenFrameworks = map[string]bool{
		FrameworkGDPR:   true,
		FrameworkHIPAA:  true,
		FrameworkPCIDSS: true,
	}
)

// NewComplianceFramework creates a new ComplianceFramework value object with validation
func NewComplianceFramework(framework string) (ComplianceFramework, error) {
	if framework == "" {
		return ComplianceFramework{}, errors.NewValidationError("EMPTY_FRAMEWORK",
			"compliance framework cannot be empty")
	}

	// Normalize framework name
	normalized := strings.ToUpper(strings.TrimSpace(framework))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")

	if !supportedFrameworks[normalized] {
		return ComplianceFramework{}, errors.NewValidationError("UNSUPPORTED_FRAMEWORK",
			fmt.Sprintf("compliance framework '%s' is not supported", framework))
	}

	return ComplianceFramework{framework: normalized}, nil
}

// MustNewComplianceFramework creates a ComplianceFramework and panics on error (for tests)
func MustNewComplianceFramework(framework string) ComplianceFramework {
	fw, err := NewComplianceFramework(framework)
	if err != nil {
		panic(err)
	}
	return fw
}

// String returns the canonical framework name
func (f ComplianceFramework) String() string {
	return f.framework
}

// DisplayName returns the human-readable framework name
func (f ComplianceFramework) DisplayName() string {
	if name, ok := frameworkDisplayNames[f.framework]; ok {
		return name
	}
	return f.framework
}

// IsEmpty reports whether the value object holds no framework
func (f ComplianceFramework) IsEmpty() bool {
	return f.framework == ""
}

// HasStatutoryDeadlines reports whether the framework imposes remediation deadlines
func (f ComplianceFramework) HasStatutoryDeadlines() bool {
	return deadlineDrivenFrameworks[f.framework]
}

// Equal compares two frameworks
func (f ComplianceFramework) Equal(other ComplianceFramework) bool {
	return f.framework == other.framework
}

// SupportedFrameworks returns the closed set of supported framework names
func SupportedFrameworks() []string {
	return []string{FrameworkGDPR, FrameworkSOC2, FrameworkNIST, FrameworkHIPAA, FrameworkPCIDSS}
}

// Value implements driver.Valuer for database storage
func (f ComplianceFramework) Value() (driver.Value, error) {
	return f.framework, nil
}

// Scan implements sql.Scanner for database retrieval
func (f *ComplianceFramework) Scan(value interface{}) error {
	if value == nil {
		*f = ComplianceFramework{}
		return nil
	}

	switch v := value.(type) {
	case string:
		fw, err := NewComplianceFramework(v)
		if err != nil {
			return err
		}
		*f = fw
		return nil
	case []byte:
		fw, err := NewComplianceFramework(string(v))
		if err != nil {
			return err
		}
		*f = fw
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ComplianceFramework", value)
	}
}

// MarshalJSON implements json.Marshaler
func (f ComplianceFramework) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.framework)
}

// UnmarshalJSON implements json.Unmarshaler
func (f *ComplianceFramework) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = ComplianceFramework{}
		return nil
	}
	fw, err := NewComplianceFramework(s)
	if err != nil {
		return err
	}
	*f = fw
	return nil
}
