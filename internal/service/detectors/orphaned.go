package detectors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

// OrphanedConfig tunes the orphaned-resource detector
type OrphanedConfig struct {
	// StaleAfter marks an asset unused when it has not been accessed for
	// this long. Zero disables the staleness check.
	StaleAfter time.Duration `koanf:"stale_after"`
}

// DefaultOrphanedConfig returns production defaults
func DefaultOrphanedConfig() OrphanedConfig {
	return OrphanedConfig{StaleAfter: 90 * 24 * time.Hour}
}

// OrphanedDetector finds assets nobody owns, references or uses
type OrphanedDetector struct {
	logger *zap.Logger
	config OrphanedConfig
	now    func() time.Time
}

// NewOrphanedDetector creates an orphaned-resource detector
func NewOrphanedDetector(logger *zap.Logger, config OrphanedConfig) *OrphanedDetector {
	return &OrphanedDetector{
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (d *OrphanedDetector) Category() gapanalysis.DetectorCategory {
	return gapanalysis.CategoryOrphaned
}

func (d *OrphanedDetector) Name() string {
	return "orphaned_resource_detector"
}

// Detect scans the inventory metadata for ownership and usage gaps
func (d *OrphanedDetector) Detect(ctx context.Context, assets []*asset.Asset) ([]*gap.Gap, error) {
	var gaps []*gap.Gap

	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return gaps, err
		}

		if !a.HasOwner() {
			severity := values.SeverityMedium
			if a.Environment == asset.EnvironmentProduction || a.Criticality == asset.CriticalityCritical {
				severity = values.SeverityHigh
			}
			gaps = append(gaps, gap.New(a.ID, gap.TypeUnclearOwnership, severity,
				fmt.Sprintf("Asset '%s' has no assigned owner team", a.Name)).
				WithRecommendations(
					"Assign an owner team in the asset inventory",
					"Review the asset's access logs to identify its primary consumers",
				))
		}

		if a.InboundReferences == 0 {
			gaps = append(gaps, gap.New(a.ID, gap.TypeUnreferencedAsset, values.SeverityMedium,
				fmt.Sprintf("Asset '%s' is not referenced by any pipeline, report or service", a.Name)).
				WithRecommendations(
					"Confirm the asset is still needed",
					"Schedule decommissioning if no consumer is found",
				))
		}

		if d.config.StaleAfter > 0 && a.LastAccessedAt != nil {
			idle := d.now().Sub(*a.LastAccessedAt)
			if idle > d.config.StaleAfter {
				gaps = append(gaps, gap.New(a.ID, gap.TypeUnusedAsset, values.SeverityLow,
					fmt.Sprintf("Asset '%s' has not been accessed for %d days", a.Name, int(idle.Hours()/24))).
					WithRecommendations(
						"Archive or decommission the asset",
						"Verify retention requirements before deletion",
					))
			}
		}
	}

	for _, g := range gaps {
		g.DetectedBy = d.Name()
	}

	d.logger.Debug("Orphaned detection finished",
		zap.Int("assets", len(assets)),
		zap.Int("gaps", len(gaps)),
	)
	return gaps, nil
}
