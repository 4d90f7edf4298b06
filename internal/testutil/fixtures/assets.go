package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
)

// AssetBuilder builds test Asset entities
type AssetBuilder struct {
	t *testing.T
	a asset.Asset
}

// NewAssetBuilder creates an AssetBuilder with sane production-shaped defaults
func NewAssetBuilder(t *testing.T) *AssetBuilder {
	t.Helper()
	now := time.Now().UTC()
	return &AssetBuilder{
		t: t,
		a: asset.Asset{
			ID:                uuid.New(),
			Name:              "orders_db",
			Type:              asset.TypeDatabase,
			Criticality:       asset.CriticalityMedium,
			Environment:       asset.EnvironmentProduction,
			Classification:    asset.ClassificationInternal,
			OwnerTeam:         "data-platform",
			BusinessImpact:    asset.ImpactMedium,
			Description:       "Primary orders database backing the checkout flow",
			InboundReferences: 3,
			Controls: asset.Controls{
				EncryptionEnabled:    true,
				AccessControlsSet:    true,
				BackupConfigured:     true,
				RetentionPolicySet:   true,
				DataSubjectRights:    true,
				MonitoringEnabled:    true,
				ComplianceDocumented: true,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *AssetBuilder) WithID(id uuid.UUID) *AssetBuilder {
	b.a.ID = id
	return b
}

func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.a.Name = name
	return b
}

func (b *AssetBuilder) WithType(t asset.AssetType) *AssetBuilder {
	b.a.Type = t
	return b
}

func (b *AssetBuilder) WithCriticality(c asset.Criticality) *AssetBuilder {
	b.a.Criticality = c
	return b
}

func (b *AssetBuilder) WithEnvironment(e asset.Environment) *AssetBuilder {
	b.a.Environment = e
	return b
}

func (b *AssetBuilder) WithClassification(c asset.SecurityClassification) *AssetBuilder {
	b.a.Classification = c
	return b
}

func (b *AssetBuilder) WithOwnerTeam(team string) *AssetBuilder {
	b.a.OwnerTeam = team
	return b
}

func (b *AssetBuilder) WithBusinessImpact(impact asset.BusinessImpact) *AssetBuilder {
	b.a.BusinessImpact = impact
	return b
}

func (b *AssetBuilder) WithDescription(description string) *AssetBuilder {
	b.a.Description = description
	return b
}

func (b *AssetBuilder) WithDocumentationUpdatedAt(at time.Time) *AssetBuilder {
	b.a.DocumentationUpdatedAt = &at
	return b
}

func (b *AssetBuilder) WithLastAccessedAt(at time.Time) *AssetBuilder {
	b.a.LastAccessedAt = &at
	return b
}

func (b *AssetBuilder) WithInboundReferences(n int) *AssetBuilder {
	b.a.InboundReferences = n
	return b
}

func (b *AssetBuilder) WithTables(tables ...asset.TableMetadata) *AssetBuilder {
	b.a.Tables = tables
	return b
}

func (b *AssetBuilder) WithControls(controls asset.Controls) *AssetBuilder {
	b.a.Controls = controls
	return b
}

// Build returns the asset
func (b *AssetBuilder) Build() *asset.Asset {
	a := b.a
	return &a
}
