package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

// SnapshotRepository stores and loads historical gap-count snapshots used by
// trend analysis. Implements the analyzer's SnapshotStore contract.
type SnapshotRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewSnapshotRepository creates a Postgres-backed snapshot store
func NewSnapshotRepository(pool *pgxpool.Pool, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, logger: logger}
}

// LoadRecentSnapshots returns up to n snapshots, most recent first
func (r *SnapshotRepository) LoadRecentSnapshots(ctx context.Context, n int) ([]gapanalysis.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT snapshot_date, total_gaps, critical_gaps, high_gaps
		FROM gap_snapshots
		ORDER BY snapshot_date DESC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("querying gap snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []gapanalysis.Snapshot
	for rows.Next() {
		var s gapanalysis.Snapshot
		if err := rows.Scan(&s.Date, &s.TotalGaps, &s.CriticalGaps, &s.HighGaps); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

// SaveSnapshot records one gap-count observation. Called by the API layer
// after a successful run so future runs can compute a trend.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, s gapanalysis.Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gap_snapshots (snapshot_date, total_gaps, critical_gaps, high_gaps)
		VALUES ($1, $2, $3, $4)`,
		s.Date, s.TotalGaps, s.CriticalGaps, s.HighGaps)
	if err != nil {
		return fmt.Errorf("saving gap snapshot: %w", err)
	}

	r.logger.Debug("Saved gap snapshot",
		zap.Time("date", s.Date),
		zap.Int("total_gaps", s.TotalGaps),
	)
	return nil
}
