package gapanalysis

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
)

// Scoring caps. The final score never exceeds MaxPriorityScore regardless of
// how the individual factors combine.
const (
	MaxPriorityScore      = 375.0
	maxSecurityMultiplier = 2.0
	maxBusinessMultiplier = 2.5
)

// Factor defaults used when a lookup has no entry. Scoring is total: every
// table read falls back to one of these instead of failing.
const (
	defaultSeverityScore      = 5.0
	defaultCriticalityMult    = 1.5
	defaultEnvironmentMult    = 1.2
	defaultClassificationMult = 1.1
)

var severityScores = map[values.Severity]float64{
	values.SeverityCritical: 10,
	values.SeverityHigh:     8,
	values.SeverityMedium:   6,
	values.SeverityLow:      3,
}

var criticalityMultipliers = map[asset.Criticality]float64{
	asset.CriticalityCritical: 3.0,
	asset.CriticalityHigh:     2.5,
	asset.CriticalityMedium:   2.0,
	asset.CriticalityLow:      1.0,
}

// Regulatory multipliers for gaps tagged with a compliance framework
var frameworkRegulatoryMultipliers = map[string]float64{
	values.FrameworkGDPR:   2.5,
	values.FrameworkHIPAA:  2.5,
	values.FrameworkPCIDSS: 2.4,
	values.FrameworkSOC2:   2.0,
	values.FrameworkNIST:   2.0,
}

// Regulatory multipliers for regulation-adjacent gap types without a
// framework tag
var gapTypeRegulatoryMultipliers = map[gap.GapType]float64{
	gap.TypeMissingDataSubjectRights:       2.2,
	gap.TypeInsufficientSecurityControls:   2.0,
	gap.TypeMissingRetentionPolicy:         1.8,
	gap.TypeInsufficientAccessControls:     1.8,
	gap.TypePolicyViolation:                1.6,
	gap.TypeMissingComplianceDocumentation: 1.5,
	gap.TypeMissingBackupProcedures:        1.5,
	gap.TypeInsufficientMonitoring:         1.4,
}

var securityBaseMultipliers = map[gap.GapType]float64{
	gap.TypeInsufficientSecurityControls: 2.0,
	gap.TypeInsufficientAccessControls:   1.9,
	gap.TypeMissingDataSubjectRights:     1.6,
	gap.TypeInsufficientMonitoring:       1.5,
	gap.TypeMissingBackupProcedures:      1.4,
	gap.TypePolicyViolation:              1.4,
}

var classificationMultipliers = map[asset.SecurityClassification]float64{
	asset.ClassificationRestricted:   1.8,
	asset.ClassificationConfidential: 1.5,
	asset.ClassificationInternal:     1.2,
	asset.ClassificationPublic:       1.0,
}

var environmentMultipliers = map[asset.Environment]float64{
	asset.EnvironmentProduction:  2.5,
	asset.EnvironmentStaging:     1.5,
	asset.EnvironmentDevelopment: 1.0,
}

var businessCriticalityMultipliers = map[asset.Criticality]float64{
	asset.CriticalityCritical: 1.3,
	asset.CriticalityHigh:     1.2,
	asset.CriticalityMedium:   1.1,
	asset.CriticalityLow:      1.0,
}

var businessImpactMultipliers = map[asset.BusinessImpact]float64{
	asset.ImpactHigh:   1.2,
	asset.ImpactMedium: 1.0,
	asset.ImpactLow:    0.8,
}

// Urgency multipliers for gap types without a compliance deadline
var gapTypeUrgencyMultipliers = map[gap.GapType]float64{
	gap.TypeInsufficientSecurityControls: 1.3,
	gap.TypeInsufficientAccessControls:   1.25,
	gap.TypePolicyViolation:              1.2,
	gap.TypeMissingDataSubjectRights:     1.2,
}

// Prioritizer computes priority scores and resource-allocation guidance.
// Pure and stateless apart from its clock; safe for concurrent use.
type Prioritizer struct {
	hourlyRate decimal.Decimal
	now        func() time.Time
}

// DefaultHourlyRate is the blended remediation rate used for budget estimates
var DefaultHourlyRate = decimal.NewFromInt(150)

// NewPrioritizer creates a prioritizer with the given hourly remediation rate
func NewPrioritizer(hourlyRate decimal.Decimal) *Prioritizer {
	if hourlyRate.IsZero() {
		hourlyRate = DefaultHourlyRate
	}
	return &Prioritizer{
		hourlyRate: hourlyRate,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CalculateGapPriorityScore computes the capped multi-factor priority score
// for a gap on its owning asset. Never fails: unmapped inputs fall back to
// documented defaults so a scoring anomaly cannot abort a run.
func (p *Prioritizer) CalculateGapPriorityScore(g *gap.Gap, a *asset.Asset) gap.PriorityScore {
	if g == nil || a == nil {
		return p.DefaultScore()
	}

	severity := lookup(severityScores, g.Severity, defaultSeverityScore)
	criticality := lookup(criticalityMultipliers, a.Criticality, defaultCriticalityMult)
	regulatory := p.regulatoryMultiplier(g)
	security := p.securityMultiplier(g, a)
	business := p.businessMultiplier(a)
	urgency := p.urgencyMultiplier(g)

	score := severity * criticality * regulatory * security * business * urgency
	if score > MaxPriorityScore {
		score = MaxPriorityScore
	}

	return gap.PriorityScore{
		Score:           score,
		Level:           values.PriorityLevelForScore(score),
		SeverityScore:   severity,
		CriticalityMult: criticality,
		RegulatoryMult:  regulatory,
		SecurityMult:    security,
		BusinessMult:    business,
		UrgencyMult:     urgency,
		CalculatedAt:    p.now(),
	}
}

// DefaultScore is the documented MEDIUM fallback attached when the owning
// asset cannot be resolved.
func (p *Prioritizer) DefaultScore() gap.PriorityScore {
	return gap.PriorityScore{
		Score:                150,
		Level:                values.PriorityMedium,
		SeverityScore:        defaultSeverityScore,
		CriticalityMult:      defaultCriticalityMult,
		RegulatoryMult:       1.0,
		SecurityMult:         1.0,
		BusinessMult:         1.0,
		UrgencyMult:          1.0,
		CalculatedAt:         p.now(),
		UsedFallbackDefaults: true,
	}
}

func (p *Prioritizer) regulatoryMultiplier(g *gap.Gap) float64 {
	if g.IsComplianceSourced() {
		if mult, ok := frameworkRegulatoryMultipliers[g.Framework.String()]; ok {
			return mult
		}
		return 2.0
	}
	if mult, ok := gapTypeRegulatoryMultipliers[g.Type]; ok {
		return mult
	}
	return 1.0
}

func (p *Prioritizer) securityMultiplier(g *gap.Gap, a *asset.Asset) float64 {
	base := 1.0
	if mult, ok := securityBaseMultipliers[g.Type]; ok {
		base = mult
	}
	classification := lookup(classificationMultipliers, a.Classification, defaultClassificationMult)
	return math.Min(base*classification, maxSecurityMultiplier)
}

func (p *Prioritizer) businessMultiplier(a *asset.Asset) float64 {
	env := lookup(environmentMultipliers, a.Environment, defaultEnvironmentMult)
	criticality := lookup(businessCriticalityMultipliers, a.Criticality, 1.0)
	impact := lookup(businessImpactMultipliers, a.EffectiveBusinessImpact(), 1.0)
	return math.Min(env*criticality*impact, maxBusinessMultiplier)
}

func (p *Prioritizer) urgencyMultiplier(g *gap.Gap) float64 {
	if g.Deadline != nil {
		days := g.Deadline.Sub(p.now()).Hours() / 24
		switch {
		case days <= 30:
			return 2.0
		case days <= 90:
			return 1.5
		case days <= 180:
			return 1.2
		default:
			return 1.0
		}
	}
	if mult, ok := gapTypeUrgencyMultipliers[g.Type]; ok {
		return mult
	}
	return 1.0
}

func lookup[K comparable](table map[K]float64, key K, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}

// Resource allocation tables

// Base remediation effort in hours by gap type
var baseEffortHours = map[gap.GapType]float64{
	gap.TypeMissingDocumentation:           8,
	gap.TypeOutdatedDocumentation:          4,
	gap.TypeUnclearOwnership:               6,
	gap.TypeUnreferencedAsset:              4,
	gap.TypeUnusedAsset:                    6,
	gap.TypeInsufficientSecurityControls:   24,
	gap.TypeInsufficientAccessControls:     16,
	gap.TypeMissingBackupProcedures:        12,
	gap.TypeMissingRetentionPolicy:         10,
	gap.TypeMissingDataSubjectRights:       20,
	gap.TypeInsufficientMonitoring:         8,
	gap.TypePolicyViolation:                16,
	gap.TypeUndocumentedTable:              3,
	gap.TypeUndocumentedColumn:             1,
	gap.TypeMissingComplianceDocumentation: 12,
}

const defaultEffortHours = 8.0

var effortSeverityMultipliers = map[values.Severity]float64{
	values.SeverityCritical: 1.5,
	values.SeverityHigh:     1.3,
	values.SeverityMedium:   1.0,
	values.SeverityLow:      0.8,
}

// Remediation team names
const (
	TeamSecurity        = "security_team"
	TeamDocumentation   = "documentation_team"
	TeamOperations      = "operations_team"
	TeamCompliance      = "compliance_team"
	TeamAssetManagement = "asset_management_team"
	TeamGeneral         = "general_team"
)

var gapTypeTeams = map[gap.GapType]string{
	gap.TypeInsufficientSecurityControls:   TeamSecurity,
	gap.TypeInsufficientAccessControls:     TeamSecurity,
	gap.TypeInsufficientMonitoring:         TeamSecurity,
	gap.TypeMissingDocumentation:           TeamDocumentation,
	gap.TypeOutdatedDocumentation:          TeamDocumentation,
	gap.TypeUndocumentedTable:              TeamDocumentation,
	gap.TypeUndocumentedColumn:             TeamDocumentation,
	gap.TypeMissingBackupProcedures:        TeamOperations,
	gap.TypeMissingRetentionPolicy:         TeamCompliance,
	gap.TypeMissingDataSubjectRights:       TeamCompliance,
	gap.TypePolicyViolation:                TeamCompliance,
	gap.TypeMissingComplianceDocumentation: TeamCompliance,
	gap.TypeUnclearOwnership:               TeamAssetManagement,
	gap.TypeUnreferencedAsset:              TeamAssetManagement,
	gap.TypeUnusedAsset:                    TeamAssetManagement,
}

// Timeline assumptions: a team contributes 40 focused hours per week and at
// most four teams work the backlog in parallel.
const (
	hoursPerTeamWeek   = 40.0
	maxParallelTeams   = 4
	criticalFloorWeeks = 2
)

// GenerateResourceAllocationRecommendations derives staffing, effort,
// timeline and budget guidance from a finished, scored gap set.
func (p *Prioritizer) GenerateResourceAllocationRecommendations(gaps []*gap.Gap) *ResourceAllocation {
	alloc := &ResourceAllocation{
		TeamAssignments: make(map[string]int),
		GeneratedAt:     p.now(),
	}

	hasCritical := false
	for _, g := range gaps {
		if g == nil {
			continue
		}

		level := values.PriorityMedium
		if g.Priority != nil {
			level = g.Priority.Level
		}
		if level == values.PriorityCritical || level == values.PriorityHigh {
			alloc.ImmediateActionGaps++
		} else {
			alloc.ScheduledActionGaps++
		}

		if g.Severity == values.SeverityCritical {
			hasCritical = true
		}

		effort := defaultEffortHours
		if base, ok := baseEffortHours[g.Type]; ok {
			effort = base
		}
		effort *= lookup(effortSeverityMultipliers, g.Severity, 1.0)
		alloc.TotalEffortHours += effort

		team := TeamGeneral
		if t, ok := gapTypeTeams[g.Type]; ok {
			team = t
		}
		alloc.TeamAssignments[team]++
	}

	teams := len(alloc.TeamAssignments)
	if teams > maxParallelTeams {
		teams = maxParallelTeams
	}
	weeks := 1
	if teams > 0 {
		weeks = int(math.Ceil(alloc.TotalEffortHours / (hoursPerTeamWeek * float64(teams))))
		if weeks < 1 {
			weeks = 1
		}
	}
	if hasCritical && weeks < criticalFloorWeeks {
		weeks = criticalFloorWeeks
	}
	alloc.RecommendedTimelineWeeks = weeks

	alloc.EstimatedBudget = decimal.NewFromFloat(alloc.TotalEffortHours).
		Mul(p.hourlyRate).Round(2)

	return alloc
}
