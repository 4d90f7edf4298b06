package detectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

// DocumentationConfig tunes the documentation-gap analyzer
type DocumentationConfig struct {
	// MinDescriptionLength below which a description counts as missing
	MinDescriptionLength int `koanf:"min_description_length"`
	// RefreshWindow after which documentation counts as outdated
	RefreshWindow time.Duration `koanf:"refresh_window"`
}

// DefaultDocumentationConfig returns production defaults
func DefaultDocumentationConfig() DocumentationConfig {
	return DocumentationConfig{
		MinDescriptionLength: 20,
		RefreshWindow:        180 * 24 * time.Hour,
	}
}

// DocumentationAnalyzer finds assets with missing, thin or stale documentation
type DocumentationAnalyzer struct {
	logger *zap.Logger
	config DocumentationConfig
	now    func() time.Time
}

// NewDocumentationAnalyzer creates a documentation-gap analyzer
func NewDocumentationAnalyzer(logger *zap.Logger, config DocumentationConfig) *DocumentationAnalyzer {
	return &DocumentationAnalyzer{
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (d *DocumentationAnalyzer) Category() gapanalysis.DetectorCategory {
	return gapanalysis.CategoryDocumentation
}

func (d *DocumentationAnalyzer) Name() string {
	return "documentation_gap_analyzer"
}

// Detect scans inventory metadata for documentation deficiencies
func (d *DocumentationAnalyzer) Detect(ctx context.Context, assets []*asset.Asset) ([]*gap.Gap, error) {
	var gaps []*gap.Gap

	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return gaps, err
		}

		description := strings.TrimSpace(a.Description)
		if len(description) < d.config.MinDescriptionLength {
			severity := values.SeverityMedium
			if a.Criticality == asset.CriticalityCritical || a.Criticality == asset.CriticalityHigh {
				severity = values.SeverityHigh
			}
			gaps = append(gaps, gap.New(a.ID, gap.TypeMissingDocumentation, severity,
				fmt.Sprintf("Asset '%s' has no meaningful description", a.Name)).
				WithRecommendations(
					"Document the asset's purpose, contents and consumers",
					"Link the documentation from the asset inventory entry",
				))
		} else if a.DocumentationUpdatedAt != nil && d.now().Sub(*a.DocumentationUpdatedAt) > d.config.RefreshWindow {
			gaps = append(gaps, gap.New(a.ID, gap.TypeOutdatedDocumentation, values.SeverityLow,
				fmt.Sprintf("Documentation for asset '%s' was last updated %d days ago", a.Name,
					int(d.now().Sub(*a.DocumentationUpdatedAt).Hours()/24))).
				WithRecommendations("Review and refresh the asset documentation"))
		}

		if a.Type != asset.TypeDatabase {
			continue
		}
		for _, table := range a.Tables {
			if !table.Documented {
				gaps = append(gaps, gap.New(a.ID, gap.TypeUndocumentedTable, values.SeverityLow,
					fmt.Sprintf("Table '%s' in asset '%s' is undocumented", table.Name, a.Name)).
					WithRecommendations(fmt.Sprintf("Add a description for table '%s'", table.Name)))
			}
			if table.UndocumentedColumns > 0 {
				gaps = append(gaps, gap.New(a.ID, gap.TypeUndocumentedColumn, values.SeverityLow,
					fmt.Sprintf("Table '%s' in asset '%s' has %d undocumented columns", table.Name, a.Name, table.UndocumentedColumns)).
					WithRecommendations(fmt.Sprintf("Document the remaining columns of table '%s'", table.Name)))
			}
		}
	}

	for _, g := range gaps {
		g.DetectedBy = d.Name()
	}

	d.logger.Debug("Documentation analysis finished",
		zap.Int("assets", len(assets)),
		zap.Int("gaps", len(gaps)),
	)
	return gaps, nil
}
