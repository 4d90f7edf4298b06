package detectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
	"github.com/caldermont/data-governance-backend/internal/testutil/fixtures"
)

func frameworks(t *testing.T, names ...string) []values.ComplianceFramework {
	t.Helper()
	fws := make([]values.ComplianceFramework, len(names))
	for i, name := range names {
		fws[i] = values.MustNewComplianceFramework(name)
	}
	return fws
}

func TestComplianceChecker_GDPRSensitiveAssetWithoutControls(t *testing.T) {
	d := NewComplianceChecker(zap.NewNop(), frameworks(t, values.FrameworkGDPR), ComplianceConfig{})

	a := fixtures.NewAssetBuilder(t).
		WithClassification(asset.ClassificationRestricted).
		WithControls(asset.Controls{}).
		Build()

	gaps, err := d.Assess(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, gaps, 3)

	types := map[gap.GapType]bool{}
	for _, g := range gaps {
		types[g.Type] = true
		assert.Equal(t, a.ID, g.AssetID)
		assert.Equal(t, d.Name(), g.DetectedBy)
		require.NotNil(t, g.Framework)
		assert.Equal(t, values.FrameworkGDPR, g.Framework.String())
		require.NotNil(t, g.Deadline)
		assert.True(t, g.Deadline.After(time.Now()))
		assert.True(t, g.IsComplianceSourced())
		assert.NotEmpty(t, g.Recommendations)
	}
	assert.True(t, types[gap.TypeMissingDataSubjectRights])
	assert.True(t, types[gap.TypeMissingRetentionPolicy])
	assert.True(t, types[gap.TypeInsufficientSecurityControls])
}

func TestComplianceChecker_GDPRSkipsNonSensitiveAssets(t *testing.T) {
	d := NewComplianceChecker(zap.NewNop(), frameworks(t, values.FrameworkGDPR), ComplianceConfig{})

	a := fixtures.NewAssetBuilder(t).
		WithClassification(asset.ClassificationInternal).
		WithControls(asset.Controls{}).
		Build()

	gaps, err := d.Assess(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestComplianceChecker_SatisfiedControlsProduceNoGaps(t *testing.T) {
	d := NewComplianceChecker(zap.NewNop(),
		frameworks(t, values.SupportedFrameworks()...), ComplianceConfig{})

	// Builder defaults have every control enabled
	a := fixtures.NewAssetBuilder(t).
		WithClassification(asset.ClassificationRestricted).
		Build()

	gaps, err := d.Assess(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestComplianceChecker_HIPAAMissingEncryptionIsCritical(t *testing.T) {
	d := NewComplianceChecker(zap.NewNop(), frameworks(t, values.FrameworkHIPAA), ComplianceConfig{})

	a := fixtures.NewAssetBuilder(t).
		WithClassification(asset.ClassificationConfidential).
		WithControls(asset.Controls{
			AccessControlsSet:    true,
			ComplianceDocumented: true,
		}).
		Build()

	gaps, err := d.Assess(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, gap.TypeInsufficientSecurityControls, gaps[0].Type)
	assert.Equal(t, values.SeverityCritical, gaps[0].Severity)
}

func TestComplianceChecker_DetectCoversAllAssets(t *testing.T) {
	d := NewComplianceChecker(zap.NewNop(), frameworks(t, values.FrameworkSOC2), ComplianceConfig{})

	noMonitoring := fixtures.NewAssetBuilder(t).
		WithControls(asset.Controls{
			EncryptionEnabled:    true,
			AccessControlsSet:    true,
			BackupConfigured:     true,
			RetentionPolicySet:   true,
			DataSubjectRights:    true,
			ComplianceDocumented: true,
		}).
		Build()
	compliant := fixtures.NewAssetBuilder(t).Build()

	gaps, err := d.Detect(context.Background(), []*asset.Asset{noMonitoring, compliant})
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, gap.TypeInsufficientMonitoring, gaps[0].Type)
	assert.Equal(t, noMonitoring.ID, gaps[0].AssetID)
}

func TestComplianceChecker_RateLimiterHonorsCancellation(t *testing.T) {
	// One check per minute with no burst headroom left after the first call
	d := NewComplianceChecker(zap.NewNop(), frameworks(t, values.FrameworkSOC2),
		ComplianceConfig{ChecksPerSecond: 1.0 / 60.0, Burst: 1})

	a := fixtures.NewAssetBuilder(t).Build()
	_, err := d.Assess(context.Background(), a)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = d.Assess(ctx, a)
	assert.Error(t, err)
}

func TestComplianceChecker_ImplementsAssetAssessor(t *testing.T) {
	var d gapanalysis.Detector = NewComplianceChecker(zap.NewNop(), nil, ComplianceConfig{})

	_, ok := d.(gapanalysis.AssetAssessor)
	assert.True(t, ok)
	assert.Equal(t, gapanalysis.CategoryCompliance, d.Category())
}
