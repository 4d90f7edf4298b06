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
	"github.com/caldermont/data-governance-backend/internal/testutil/fixtures"
)

func gapsOfType(gaps []*gap.Gap, t gap.GapType) []*gap.Gap {
	var matched []*gap.Gap
	for _, g := range gaps {
		if g.Type == t {
			matched = append(matched, g)
		}
	}
	return matched
}

func TestOrphanedDetector_UnclearOwnership(t *testing.T) {
	d := NewOrphanedDetector(zap.NewNop(), DefaultOrphanedConfig())

	prodOrphan := fixtures.NewAssetBuilder(t).
		WithOwnerTeam("").
		WithEnvironment(asset.EnvironmentProduction).
		Build()
	devOrphan := fixtures.NewAssetBuilder(t).
		WithOwnerTeam("  ").
		WithEnvironment(asset.EnvironmentDevelopment).
		WithCriticality(asset.CriticalityLow).
		Build()
	owned := fixtures.NewAssetBuilder(t).Build()

	gaps, err := d.Detect(context.Background(), []*asset.Asset{prodOrphan, devOrphan, owned})
	require.NoError(t, err)

	ownership := gapsOfType(gaps, gap.TypeUnclearOwnership)
	require.Len(t, ownership, 2)

	bySeverity := map[values.Severity]int{}
	for _, g := range ownership {
		bySeverity[g.Severity]++
		assert.Equal(t, d.Name(), g.DetectedBy)
	}
	// Production assets escalate, everything else stays MEDIUM
	assert.Equal(t, 1, bySeverity[values.SeverityHigh])
	assert.Equal(t, 1, bySeverity[values.SeverityMedium])
}

func TestOrphanedDetector_UnreferencedAsset(t *testing.T) {
	d := NewOrphanedDetector(zap.NewNop(), DefaultOrphanedConfig())

	unreferenced := fixtures.NewAssetBuilder(t).WithInboundReferences(0).Build()
	referenced := fixtures.NewAssetBuilder(t).WithInboundReferences(2).Build()

	gaps, err := d.Detect(context.Background(), []*asset.Asset{unreferenced, referenced})
	require.NoError(t, err)

	found := gapsOfType(gaps, gap.TypeUnreferencedAsset)
	require.Len(t, found, 1)
	assert.Equal(t, unreferenced.ID, found[0].AssetID)
	assert.Equal(t, values.SeverityMedium, found[0].Severity)
}

func TestOrphanedDetector_UnusedAsset(t *testing.T) {
	d := NewOrphanedDetector(zap.NewNop(), OrphanedConfig{StaleAfter: 90 * 24 * time.Hour})

	staleAccess := time.Now().UTC().AddDate(0, 0, -120)
	recentAccess := time.Now().UTC().AddDate(0, 0, -10)

	stale := fixtures.NewAssetBuilder(t).WithLastAccessedAt(staleAccess).Build()
	active := fixtures.NewAssetBuilder(t).WithLastAccessedAt(recentAccess).Build()
	unknown := fixtures.NewAssetBuilder(t).Build() // no access history

	gaps, err := d.Detect(context.Background(), []*asset.Asset{stale, active, unknown})
	require.NoError(t, err)

	found := gapsOfType(gaps, gap.TypeUnusedAsset)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].AssetID)
	assert.Equal(t, values.SeverityLow, found[0].Severity)
	assert.Contains(t, found[0].Description, "has not been accessed")
}

func TestOrphanedDetector_StalenessCheckDisabled(t *testing.T) {
	d := NewOrphanedDetector(zap.NewNop(), OrphanedConfig{StaleAfter: 0})

	staleAccess := time.Now().UTC().AddDate(-1, 0, 0)
	a := fixtures.NewAssetBuilder(t).WithLastAccessedAt(staleAccess).Build()

	gaps, err := d.Detect(context.Background(), []*asset.Asset{a})
	require.NoError(t, err)
	assert.Empty(t, gapsOfType(gaps, gap.TypeUnusedAsset))
}

func TestOrphanedDetector_CanceledContext(t *testing.T) {
	d := NewOrphanedDetector(zap.NewNop(), DefaultOrphanedConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, []*asset.Asset{fixtures.NewAssetBuilder(t).Build()})
	assert.ErrorIs(t, err, context.Canceled)
}
