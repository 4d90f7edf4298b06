package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
)

// GapBuilder builds test Gap entities
type GapBuilder struct {
	t *testing.T
	g gap.Gap
}

// NewGapBuilder creates a GapBuilder with defaults
func NewGapBuilder(t *testing.T) *GapBuilder {
	t.Helper()
	return &GapBuilder{
		t: t,
		g: gap.Gap{
			ID:          uuid.New(),
			AssetID:     uuid.New(),
			Type:        gap.TypeMissingDocumentation,
			Severity:    values.SeverityMedium,
			Description: "Asset has no meaningful description",
			DetectedAt:  time.Now().UTC(),
		},
	}
}

func (b *GapBuilder) WithAssetID(id uuid.UUID) *GapBuilder {
	b.g.AssetID = id
	return b
}

func (b *GapBuilder) WithType(t gap.GapType) *GapBuilder {
	b.g.Type = t
	return b
}

func (b *GapBuilder) WithSeverity(s values.Severity) *GapBuilder {
	b.g.Severity = s
	return b
}

func (b *GapBuilder) WithDescription(description string) *GapBuilder {
	b.g.Description = description
	return b
}

func (b *GapBuilder) WithFramework(name string, deadline *time.Time) *GapBuilder {
	fw := values.MustNewComplianceFramework(name)
	b.g.Framework = &fw
	b.g.Deadline = deadline
	return b
}

func (b *GapBuilder) WithPriority(score float64) *GapBuilder {
	b.g.Priority = &gap.PriorityScore{
		Score:        score,
		Level:        values.PriorityLevelForScore(score),
		CalculatedAt: time.Now().UTC(),
	}
	return b
}

// Build returns the gap
func (b *GapBuilder) Build() *gap.Gap {
	g := b.g
	return &g
}
