package gap

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caldermont/data-governance-backend/internal/domain/values"
)

// GapType identifies the kind of governance deficiency a detector found.
// Closed enum; adding a member requires updating the prioritizer tables.
type GapType string

const (
	TypeMissingDocumentation           GapType = "MISSING_DOCUMENTATION"
	TypeOutdatedDocumentation          GapType = "OUTDATED_DOCUMENTATION"
	TypeUnclearOwnership               GapType = "UNCLEAR_OWNERSHIP"
	TypeUnreferencedAsset              GapType = "UNREFERENCED_ASSET"
	TypeUnusedAsset                    GapType = "UNUSED_ASSET"
	TypeInsufficientSecurityControls   GapType = "INSUFFICIENT_SECURITY_CONTROLS"
	TypeInsufficientAccessControls     GapType = "INSUFFICIENT_ACCESS_CONTROLS"
	TypeMissingBackupProcedures        GapType = "MISSING_BACKUP_PROCEDURES"
	TypeMissingRetentionPolicy         GapType = "MISSING_RETENTION_POLICY"
	TypeMissingDataSubjectRights       GapType = "MISSING_DATA_SUBJECT_RIGHTS"
	TypeInsufficientMonitoring         GapType = "INSUFFICIENT_MONITORING"
	TypePolicyViolation                GapType = "POLICY_VIOLATION"
	TypeUndocumentedTable              GapType = "UNDOCUMENTED_TABLE"
	TypeUndocumentedColumn             GapType = "UNDOCUMENTED_COLUMN"
	TypeMissingComplianceDocumentation GapType = "MISSING_COMPLIANCE_DOCUMENTATION"
)

var allGapTypes = map[GapType]bool{
	TypeMissingDocumentation:           true,
	TypeOutdatedDocumentation:          true,
	TypeUnclearOwnership:               true,
	TypeUnreferencedAsset:              true,
	TypeUnusedAsset:                    true,
	TypeInsufficientSecurityControls:   true,
	TypeInsufficientAccessControls:     true,
	TypeMissingBackupProcedures:        true,
	TypeMissingRetentionPolicy:         true,
	TypeMissingDataSubjectRights:       true,
	TypeInsufficientMonitoring:         true,
	TypePolicyViolation:                true,
	TypeUndocumentedTable:              true,
	TypeUndocumentedColumn:             true,
	TypeMissingComplianceDocumentation: true,
}

func (t GapType) String() string {
	return string(t)
}

// IsValid reports whether the gap type is a member of the closed enum
func (t GapType) IsValid() bool {
	return allGapTypes[t]
}

// PriorityScore is the capped multi-factor score attached to a gap after
// detection. Never persisted independently of its gap.
type PriorityScore struct {
	Score                float64              `json:"score"`
	Level                values.PriorityLevel `json:"level"`
	SeverityScore        float64              `json:"severity_score"`
	CriticalityMult      float64              `json:"criticality_multiplier"`
	RegulatoryMult       float64              `json:"regulatory_multiplier"`
	SecurityMult         float64              `json:"security_multiplier"`
	BusinessMult         float64              `json:"business_multiplier"`
	UrgencyMult          float64              `json:"urgency_multiplier"`
	CalculatedAt         time.Time            `json:"calculated_at"`
	UsedFallbackDefaults bool                 `json:"used_fallback_defaults,omitempty"`
}

// Gap is a detected governance deficiency on a single asset. Owned by the
// analyzer for the duration of a run and discarded with the result.
type Gap struct {
	ID              uuid.UUID         `json:"id"`
	AssetID         uuid.UUID         `json:"asset_id"`
	Type            GapType           `json:"type"`
	Severity        values.Severity   `json:"severity"`
	Description     string            `json:"description"`
	Recommendations []string          `json:"recommendations,omitempty"`
	DetectedAt      time.Time         `json:"detected_at"`
	DetectedBy      string            `json:"detected_by,omitempty"`

	// Populated only for compliance-sourced gaps
	Framework *values.ComplianceFramework `json:"framework,omitempty"`
	Deadline  *time.Time                  `json:"deadline,omitempty"`

	// Attached after detection by the prioritizer
	Priority *PriorityScore `json:"priority,omitempty"`
}

// New creates a gap with a fresh identifier and discovery timestamp
func New(assetID uuid.UUID, gapType GapType, severity values.Severity, description string) *Gap {
	return &Gap{
		ID:          uuid.New(),
		AssetID:     assetID,
		Type:        gapType,
		Severity:    severity,
		Description: description,
		DetectedAt:  time.Now().UTC(),
	}
}

// WithRecommendations attaches remediation recommendations in order
func (g *Gap) WithRecommendations(recs ...string) *Gap {
	g.Recommendations = append(g.Recommendations, recs...)
	return g
}

// WithFramework tags the gap with the compliance framework that produced it
func (g *Gap) WithFramework(fw values.ComplianceFramework, deadline *time.Time) *Gap {
	g.Framework = &fw
	g.Deadline = deadline
	return g
}

// signaturePrefixLen bounds how much of the description participates in the
// dedup signature, so detectors that phrase the same finding with trailing
// detail still collapse.
const signaturePrefixLen = 100

// Signature returns the dedup identity of the gap: asset, type, severity and
// the description prefix. Two gaps with equal signatures describe the same
// problem found by different detectors.
func (g *Gap) Signature() string {
	desc := g.Description
	if len(desc) > signaturePrefixLen {
		desc = desc[:signaturePrefixLen]
	}
	return fmt.Sprintf("%s|%s|%s|%s", g.AssetID, g.Type, g.Severity, desc)
}

// IsComplianceSourced reports whether the gap carries a framework tag
func (g *Gap) IsComplianceSourced() bool {
	return g.Framework != nil && !g.Framework.IsEmpty()
}
