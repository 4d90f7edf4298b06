package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetType classifies the kind of data-storage asset
type AssetType string

const (
	TypeDatabase AssetType = "database"
	TypeFile     AssetType = "file"
	TypeService  AssetType = "service"
)

// Criticality expresses how important the asset is to the platform
type Criticality string

const (
	CriticalityLow      Criticality = "LOW"
	CriticalityMedium   Criticality = "MEDIUM"
	CriticalityHigh     Criticality = "HIGH"
	CriticalityCritical Criticality = "CRITICAL"
)

// Environment identifies the deployment environment of the asset
type Environment string

const (
	EnvironmentDevelopment Environment = "DEVELOPMENT"
	EnvironmentStaging     Environment = "STAGING"
	EnvironmentProduction  Environment = "PRODUCTION"
)

// SecurityClassification expresses the sensitivity of the stored data
type SecurityClassification string

const (
	ClassificationPublic       SecurityClassification = "PUBLIC"
	ClassificationInternal     SecurityClassification = "INTERNAL"
	ClassificationConfidential SecurityClassification = "CONFIDENTIAL"
	ClassificationRestricted   SecurityClassification = "RESTRICTED"
)

// BusinessImpact expresses the business consequence of losing the asset
type BusinessImpact string

const (
	ImpactLow    BusinessImpact = "LOW"
	ImpactMedium BusinessImpact = "MEDIUM"
	ImpactHigh   BusinessImpact = "HIGH"
)

// Controls captures the governance controls configured on an asset.
// The compliance detector evaluates framework requirements against these.
type Controls struct {
	EncryptionEnabled    bool `json:"encryption_enabled"`
	AccessControlsSet    bool `json:"access_controls_set"`
	BackupConfigured     bool `json:"backup_configured"`
	RetentionPolicySet   bool `json:"retention_policy_set"`
	DataSubjectRights    bool `json:"data_subject_rights"`
	MonitoringEnabled    bool `json:"monitoring_enabled"`
	ComplianceDocumented bool `json:"compliance_documented"`
}

// TableMetadata describes a table within a database asset
type TableMetadata struct {
	Name                string `json:"name"`
	Documented          bool   `json:"documented"`
	ColumnCount         int    `json:"column_count"`
	UndocumentedColumns int    `json:"undocumented_columns"`
}

// Asset is a data-storage asset under governance. Read-only to the analysis
// core; ownership stays with the inventory.
type Asset struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	Type           AssetType              `json:"type"`
	Criticality    Criticality            `json:"criticality"`
	Environment    Environment            `json:"environment"`
	Classification SecurityClassification `json:"security_classification"`
	OwnerTeam      string                 `json:"owner_team,omitempty"`
	BusinessImpact BusinessImpact         `json:"business_impact"`

	// Documentation and usage metadata consumed by detectors
	Description            string          `json:"description,omitempty"`
	DocumentationUpdatedAt *time.Time      `json:"documentation_updated_at,omitempty"`
	LastAccessedAt         *time.Time      `json:"last_accessed_at,omitempty"`
	InboundReferences      int             `json:"inbound_references"`
	Tables                 []TableMetadata `json:"tables,omitempty"`
	Controls               Controls        `json:"controls"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filterable attribute names accepted by analysis asset filters
const (
	AttrType           = "type"
	AttrCriticality    = "criticality"
	AttrEnvironment    = "environment"
	AttrClassification = "security_classification"
	AttrOwnerTeam      = "owner_team"
	AttrBusinessImpact = "business_impact"
)

var filterableAttributes = map[string]bool{
	AttrType:           true,
	AttrCriticality:    true,
	AttrEnvironment:    true,
	AttrClassification: true,
	AttrOwnerTeam:      true,
	AttrBusinessImpact: true,
}

// IsFilterableAttribute reports whether the attribute name can be used in an
// analysis asset filter.
func IsFilterableAttribute(name string) bool {
	return filterableAttributes[strings.ToLower(strings.TrimSpace(name))]
}

// FilterableAttributes returns the closed set of filterable attribute names.
func FilterableAttributes() []string {
	return []string{AttrType, AttrCriticality, AttrEnvironment, AttrClassification, AttrOwnerTeam, AttrBusinessImpact}
}

// AttributeValue returns the string value of a filterable attribute. The
// second return is false when the asset has no value for the attribute, which
// excludes it from filtered sets.
func (a *Asset) AttributeValue(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AttrType:
		return string(a.Type), a.Type != ""
	case AttrCriticality:
		return string(a.Criticality), a.Criticality != ""
	case AttrEnvironment:
		return string(a.Environment), a.Environment != ""
	case AttrClassification:
		return string(a.Classification), a.Classification != ""
	case AttrOwnerTeam:
		return a.OwnerTeam, a.OwnerTeam != ""
	case AttrBusinessImpact:
		return string(a.EffectiveBusinessImpact()), true
	default:
		return "", false
	}
}

// MatchesFilters reports whether the asset satisfies every key/value
// constraint. Comparison is case-insensitive; a missing attribute never
// matches.
func (a *Asset) MatchesFilters(filters map[string][]string) bool {
	for attr, accepted := range filters {
		value, ok := a.AttributeValue(attr)
		if !ok {
			return false
		}
		matched := false
		for _, candidate := range accepted {
			if strings.EqualFold(value, candidate) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// EffectiveBusinessImpact returns the business impact, defaulting to MEDIUM
// when the inventory carries no value.
func (a *Asset) EffectiveBusinessImpact() BusinessImpact {
	if a.BusinessImpact == "" {
		return ImpactMedium
	}
	return a.BusinessImpact
}

// HasOwner reports whether the asset has an assigned owner team
func (a *Asset) HasOwner() bool {
	return strings.TrimSpace(a.OwnerTeam) != ""
}
