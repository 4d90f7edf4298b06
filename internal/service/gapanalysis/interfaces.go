package gapanalysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
)

// Service orchestrates gap detection, aggregation, scoring and resource
// bounding across the asset inventory.
type Service interface {
	AnalyzeGaps(ctx context.Context, cfg Config) (*Result, error)
	GetAnalysisStatus(ctx context.Context, analysisID uuid.UUID) (*Status, error)
	GenerateResourceAllocationRecommendations(gaps []*gap.Gap) *ResourceAllocation
}

// DetectorCategory orders detector stages; stages always run in ascending
// category order so timings and error lists are deterministic.
type DetectorCategory int

const (
	CategoryOrphaned DetectorCategory = iota
	CategoryDocumentation
	CategoryCompliance
)

func (c DetectorCategory) String() string {
	switch c {
	case CategoryOrphaned:
		return "orphaned"
	case CategoryDocumentation:
		return "documentation"
	case CategoryCompliance:
		return "compliance"
	default:
		return "unknown"
	}
}

// StageKey returns the stable performance-breakdown key for the category
func (c DetectorCategory) StageKey() string {
	switch c {
	case CategoryOrphaned:
		return "orphaned_detection_time"
	case CategoryDocumentation:
		return "documentation_analysis_time"
	case CategoryCompliance:
		return "compliance_assessment_time"
	default:
		return "unknown_stage_time"
	}
}

// Detector is a pluggable gap-detection algorithm. Implementations must be
// safe for reuse across runs and must not retain the asset slice.
type Detector interface {
	Category() DetectorCategory
	Name() string
	Detect(ctx context.Context, assets []*asset.Asset) ([]*gap.Gap, error)
}

// AssetAssessor is implemented by detectors that support per-asset
// invocation. The orchestrator batches assessor calls instead of handing the
// detector the whole inventory at once.
type AssetAssessor interface {
	Assess(ctx context.Context, a *asset.Asset) ([]*gap.Gap, error)
}

// AssetProvider supplies the candidate asset set. Must fail loudly rather
// than return a partial inventory.
type AssetProvider interface {
	GetAllAssets(ctx context.Context) ([]*asset.Asset, error)
}

// Snapshot is one historical gap-count observation, used for trend analysis
type Snapshot struct {
	Date         time.Time `json:"date"`
	TotalGaps    int       `json:"total_gaps"`
	CriticalGaps int       `json:"critical_gaps"`
	HighGaps     int       `json:"high_gaps"`
}

// SnapshotStore loads historical gap-count snapshots, most recent first
type SnapshotStore interface {
	LoadRecentSnapshots(ctx context.Context, n int) ([]Snapshot, error)
}

// StatusStore records run progress for the polling surface
type StatusStore interface {
	Set(ctx context.Context, status *Status) error
	Get(ctx context.Context, analysisID uuid.UUID) (*Status, error)
}

// Config is the immutable per-run analysis configuration
type Config struct {
	DetectOrphaned       bool                `json:"detect_orphaned"`
	AnalyzeDocumentation bool                `json:"analyze_documentation"`
	CheckCompliance      bool                `json:"check_compliance"`
	ComplianceFrameworks []string            `json:"compliance_frameworks,omitempty"`
	MaxExecutionTime     int                 `json:"max_execution_time_seconds" validate:"gt=0"`
	MaxMemoryUsageMB     int                 `json:"max_memory_usage_mb" validate:"gt=0"`
	AssetFilters         map[string][]string `json:"asset_filters,omitempty"`
	IncludeTrendAnalysis bool                `json:"include_trend_analysis"`
}

// ExecutionBudget returns the run deadline as a duration
func (c Config) ExecutionBudget() time.Duration {
	return time.Duration(c.MaxExecutionTime) * time.Second
}

// Summary carries derived headline numbers for a finished run
type Summary struct {
	HighSeverityGaps     int     `json:"high_severity_gaps"`
	MediumSeverityGaps   int     `json:"medium_severity_gaps"`
	LowSeverityGaps      int     `json:"low_severity_gaps"`
	AveragePriorityScore float64 `json:"average_priority_score"`
}

// TrendAnalysis compares the two most recent snapshots
type TrendAnalysis struct {
	Available     bool      `json:"available"`
	ChangePercent float64   `json:"change_percent"`
	Direction     string    `json:"direction"`
	Current       *Snapshot `json:"current,omitempty"`
	Previous      *Snapshot `json:"previous,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Result is the immutable outcome of one analysis run
type Result struct {
	AnalysisID     uuid.UUID                 `json:"analysis_id"`
	StartedAt      time.Time                 `json:"started_at"`
	ExecutionTime  time.Duration             `json:"execution_time"`
	TotalGapsFound int                       `json:"total_gaps_found"`
	AssetsAnalyzed int                       `json:"assets_analyzed"`
	Gaps           []*gap.Gap                `json:"gaps"`
	GapsByType     map[gap.GapType]int       `json:"gaps_by_type"`
	GapsBySeverity map[values.Severity]int   `json:"gaps_by_severity"`
	StageTimings   map[string]time.Duration  `json:"stage_timings"`
	PeakMemoryMB   float64                   `json:"peak_memory_mb"`
	Errors         []string                  `json:"errors,omitempty"`
	Trend          *TrendAnalysis            `json:"trend,omitempty"`
	Summary        Summary                   `json:"summary"`
}

// Run states reported by the polling surface
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Status is a point-in-time snapshot of a run, for polling
type Status struct {
	AnalysisID     uuid.UUID `json:"analysis_id"`
	State          string    `json:"state"`
	Stage          string    `json:"stage,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	AssetsAnalyzed int       `json:"assets_analyzed"`
	GapsFound      int       `json:"gaps_found"`
	Error          string    `json:"error,omitempty"`
}

// ResourceAllocation is derived staffing, timeline and budget guidance
// computed from a finished, scored gap set.
type ResourceAllocation struct {
	ImmediateActionGaps      int             `json:"immediate_action_gaps"`
	ScheduledActionGaps      int             `json:"scheduled_action_gaps"`
	TotalEffortHours         float64         `json:"total_effort_hours"`
	TeamAssignments          map[string]int  `json:"team_assignments"`
	RecommendedTimelineWeeks int             `json:"recommended_timeline_weeks"`
	EstimatedBudget          decimal.Decimal `json:"estimated_budget"`
	GeneratedAt              time.Time       `json:"generated_at"`
}
