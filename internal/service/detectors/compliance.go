package detectors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

// requirement is one framework control evaluated against asset metadata
type requirement struct {
	GapType         gap.GapType
	Severity        values.Severity
	Description     string
	Recommendations []string
	DeadlineDays    int
	AppliesTo       func(a *asset.Asset) bool
	Satisfied       func(a *asset.Asset) bool
}

func sensitiveData(a *asset.Asset) bool {
	return a.Classification == asset.ClassificationConfidential ||
		a.Classification == asset.ClassificationRestricted
}

func anyAsset(*asset.Asset) bool { return true }

// Per-framework requirement tables. Evaluated against inventory metadata
// only; this detector does not touch the storage systems themselves.
var frameworkRequirements = map[string][]requirement{
	values.FrameworkGDPR: {
		{
			GapType:      gap.TypeMissingDataSubjectRights,
			Severity:     values.SeverityHigh,
			Description:  "no data subject rights process (access, erasure, portability) is configured",
			DeadlineDays: 30,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.DataSubjectRights },
			Recommendations: []string{
				"Implement data subject access and erasure workflows",
				"Register the asset in the data subject request routing table",
			},
		},
		{
			GapType:      gap.TypeMissingRetentionPolicy,
			Severity:     values.SeverityHigh,
			Description:  "no retention policy is configured for personal data",
			DeadlineDays: 60,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.RetentionPolicySet },
			Recommendations: []string{
				"Define and enforce a retention schedule",
			},
		},
		{
			GapType:      gap.TypeInsufficientSecurityControls,
			Severity:     values.SeverityHigh,
			Description:  "personal data is stored without encryption at rest",
			DeadlineDays: 45,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.EncryptionEnabled },
			Recommendations: []string{
				"Enable encryption at rest",
				"Rotate and vault the encryption keys",
			},
		},
	},
	values.FrameworkSOC2: {
		{
			GapType:      gap.TypeInsufficientAccessControls,
			Severity:     values.SeverityHigh,
			Description:  "access controls are not configured",
			DeadlineDays: 60,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.AccessControlsSet },
			Recommendations: []string{
				"Enforce role-based access with periodic review",
			},
		},
		{
			GapType:      gap.TypeInsufficientMonitoring,
			Severity:     values.SeverityMedium,
			Description:  "no monitoring or alerting is configured",
			DeadlineDays: 90,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.MonitoringEnabled },
			Recommendations: []string{
				"Enable audit logging and alerting for the asset",
			},
		},
		{
			GapType:      gap.TypeMissingBackupProcedures,
			Severity:     values.SeverityMedium,
			Description:  "no backup procedure is configured",
			DeadlineDays: 90,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.BackupConfigured },
			Recommendations: []string{
				"Configure scheduled backups with restore testing",
			},
		},
	},
	values.FrameworkNIST: {
		{
			GapType:      gap.TypeInsufficientAccessControls,
			Severity:     values.SeverityHigh,
			Description:  "access controls do not meet NIST AC requirements",
			DeadlineDays: 90,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.AccessControlsSet },
			Recommendations: []string{
				"Apply least-privilege access per NIST SP 800-53 AC-6",
			},
		},
		{
			GapType:      gap.TypeInsufficientMonitoring,
			Severity:     values.SeverityMedium,
			Description:  "continuous monitoring is not in place",
			DeadlineDays: 120,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.MonitoringEnabled },
			Recommendations: []string{
				"Stand up continuous monitoring per NIST SP 800-137",
			},
		},
	},
	values.FrameworkHIPAA: {
		{
			GapType:      gap.TypeInsufficientSecurityControls,
			Severity:     values.SeverityCritical,
			Description:  "protected health information is stored without encryption",
			DeadlineDays: 30,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.EncryptionEnabled },
			Recommendations: []string{
				"Enable encryption at rest and in transit",
			},
		},
		{
			GapType:      gap.TypeInsufficientAccessControls,
			Severity:     values.SeverityHigh,
			Description:  "access to protected health information is not restricted",
			DeadlineDays: 45,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.AccessControlsSet },
			Recommendations: []string{
				"Restrict access to authorized workforce members only",
			},
		},
		{
			GapType:      gap.TypeMissingComplianceDocumentation,
			Severity:     values.SeverityMedium,
			Description:  "required HIPAA compliance documentation is missing",
			DeadlineDays: 90,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.ComplianceDocumented },
			Recommendations: []string{
				"Produce and file the required risk analysis documentation",
			},
		},
	},
	values.FrameworkPCIDSS: {
		{
			GapType:      gap.TypeInsufficientSecurityControls,
			Severity:     values.SeverityCritical,
			Description:  "cardholder data is stored without encryption",
			DeadlineDays: 30,
			AppliesTo:    sensitiveData,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.EncryptionEnabled },
			Recommendations: []string{
				"Encrypt stored cardholder data per PCI DSS requirement 3",
			},
		},
		{
			GapType:      gap.TypeInsufficientMonitoring,
			Severity:     values.SeverityHigh,
			Description:  "access to cardholder data is not tracked or monitored",
			DeadlineDays: 60,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.MonitoringEnabled },
			Recommendations: []string{
				"Log and monitor all access per PCI DSS requirement 10",
			},
		},
		{
			GapType:      gap.TypeMissingRetentionPolicy,
			Severity:     values.SeverityMedium,
			Description:  "no data retention and disposal policy is configured",
			DeadlineDays: 90,
			AppliesTo:    anyAsset,
			Satisfied:    func(a *asset.Asset) bool { return a.Controls.RetentionPolicySet },
			Recommendations: []string{
				"Define retention and secure-disposal procedures",
			},
		},
	},
}

// ComplianceConfig tunes the compliance-gap checker
type ComplianceConfig struct {
	// ChecksPerSecond throttles per-asset assessments. Zero means unlimited.
	ChecksPerSecond float64 `koanf:"checks_per_second"`
	Burst           int     `koanf:"burst"`
}

// DefaultComplianceConfig returns production defaults
func DefaultComplianceConfig() ComplianceConfig {
	return ComplianceConfig{ChecksPerSecond: 200, Burst: 20}
}

// ComplianceChecker evaluates framework requirement tables per asset. It
// supports per-asset invocation so the orchestrator can batch it.
type ComplianceChecker struct {
	logger     *zap.Logger
	frameworks []values.ComplianceFramework
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewComplianceChecker creates a compliance-gap checker for the given
// frameworks.
func NewComplianceChecker(logger *zap.Logger, frameworks []values.ComplianceFramework, config ComplianceConfig) *ComplianceChecker {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.ChecksPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.ChecksPerSecond), burst)
	}
	return &ComplianceChecker{
		logger:     logger,
		frameworks: frameworks,
		limiter:    limiter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (d *ComplianceChecker) Category() gapanalysis.DetectorCategory {
	return gapanalysis.CategoryCompliance
}

func (d *ComplianceChecker) Name() string {
	return "compliance_gap_checker"
}

// Assess evaluates every configured framework's requirements against one asset
func (d *ComplianceChecker) Assess(ctx context.Context, a *asset.Asset) ([]*gap.Gap, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var gaps []*gap.Gap
	for _, fw := range d.frameworks {
		for _, req := range frameworkRequirements[fw.String()] {
			if !req.AppliesTo(a) || req.Satisfied(a) {
				continue
			}
			deadline := d.now().AddDate(0, 0, req.DeadlineDays)
			g := gap.New(a.ID, req.GapType, req.Severity,
				fmt.Sprintf("%s: asset '%s' %s", fw.String(), a.Name, req.Description)).
				WithRecommendations(req.Recommendations...).
				WithFramework(fw, &deadline)
			g.DetectedBy = d.Name()
			gaps = append(gaps, g)
		}
	}
	return gaps, nil
}

// Detect assesses all assets sequentially. The orchestrator prefers Assess
// with its own batching; Detect exists to satisfy the Detector contract.
func (d *ComplianceChecker) Detect(ctx context.Context, assets []*asset.Asset) ([]*gap.Gap, error) {
	var gaps []*gap.Gap
	for _, a := range assets {
		assetGaps, err := d.Assess(ctx, a)
		if err != nil {
			return gaps, err
		}
		gaps = append(gaps, assetGaps...)
	}

	d.logger.Debug("Compliance assessment finished",
		zap.Int("assets", len(assets)),
		zap.Int("gaps", len(gaps)),
		zap.Int("frameworks", len(d.frameworks)),
	)
	return gaps, nil
}
