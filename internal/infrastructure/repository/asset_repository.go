package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
)

// AssetRepository provides the asset inventory from Postgres. It implements
// the analyzer's AssetProvider contract: the inventory comes back complete
// or not at all.
type AssetRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAssetRepository creates a Postgres-backed asset provider
func NewAssetRepository(pool *pgxpool.Pool, logger *zap.Logger) *AssetRepository {
	return &AssetRepository{pool: pool, logger: logger}
}

const selectAssetsQuery = `
	SELECT id, name, asset_type, criticality, environment, security_classification,
	       COALESCE(owner_team, ''), COALESCE(business_impact, ''),
	       COALESCE(description, ''), documentation_updated_at, last_accessed_at,
	       inbound_references, tables, controls, created_at, updated_at
	FROM assets
	ORDER BY created_at`

// GetAllAssets returns the full asset inventory. Any row failure aborts the
// fetch; a partial inventory is never returned.
func (r *AssetRepository) GetAllAssets(ctx context.Context) ([]*asset.Asset, error) {
	rows, err := r.pool.Query(ctx, selectAssetsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []*asset.Asset
	for rows.Next() {
		var (
			a            asset.Asset
			tablesJSON   []byte
			controlsJSON []byte
		)
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Type, &a.Criticality, &a.Environment, &a.Classification,
			&a.OwnerTeam, &a.BusinessImpact,
			&a.Description, &a.DocumentationUpdatedAt, &a.LastAccessedAt,
			&a.InboundReferences, &tablesJSON, &controlsJSON, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning asset row: %w", err)
		}
		if len(tablesJSON) > 0 {
			if err := json.Unmarshal(tablesJSON, &a.Tables); err != nil {
				return nil, fmt.Errorf("decoding tables metadata for asset %s: %w", a.ID, err)
			}
		}
		if len(controlsJSON) > 0 {
			if err := json.Unmarshal(controlsJSON, &a.Controls); err != nil {
				return nil, fmt.Errorf("decoding controls for asset %s: %w", a.ID, err)
			}
		}
		assets = append(assets, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}

	r.logger.Debug("Loaded asset inventory", zap.Int("count", len(assets)))
	return assets, nil
}
