package gapanalysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/domain/asset"
	"github.com/caldermont/data-governance-backend/internal/domain/errors"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
)

// complianceBatchSize bounds peak concurrency during per-asset compliance
// assessment: one batch of checks runs concurrently, the next batch starts
// only after the previous one is fully drained.
const complianceBatchSize = 10

// snapshotWindow is how many historical snapshots the trend step requests
const snapshotWindow = 2

// service implements the Service interface
type service struct {
	logger      *zap.Logger
	tracer      trace.Tracer
	provider    AssetProvider
	detectors   []Detector
	snapshots   SnapshotStore
	statuses    StatusStore
	prioritizer *Prioritizer
	validate    *validator.Validate
}

// NewService creates the gap analysis orchestrator with its collaborators
// injected. Detectors run in category order regardless of slice order;
// snapshotStore and statusStore may be nil, which disables trend analysis
// and status polling respectively.
func NewService(
	logger *zap.Logger,
	provider AssetProvider,
	detectors []Detector,
	snapshotStore SnapshotStore,
	statusStore StatusStore,
	prioritizer *Prioritizer,
) Service {
	ordered := make([]Detector, len(detectors))
	copy(ordered, detectors)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category() < ordered[j].Category()
	})

	if prioritizer == nil {
		prioritizer = NewPrioritizer(DefaultHourlyRate)
	}

	return &service{
		logger:      logger,
		tracer:      otel.Tracer("gapanalysis"),
		provider:    provider,
		detectors:   ordered,
		snapshots:   snapshotStore,
		statuses:    statusStore,
		prioritizer: prioritizer,
		validate:    validator.New(),
	}
}

// AnalyzeGaps runs the full detection pipeline for one configuration.
// Configuration errors, execution-time overruns and memory overruns return
// typed errors; individual detector failures are collected into the result's
// error list instead.
func (s *service) AnalyzeGaps(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		analysesTotal.WithLabelValues("invalid_config").Inc()
		return nil, err
	}

	analysisID := uuid.New()
	started := time.Now()

	ctx, span := s.tracer.Start(ctx, "gapanalysis.AnalyzeGaps",
		trace.WithAttributes(
			attribute.String("analysis.id", analysisID.String()),
			attribute.Int("analysis.max_execution_seconds", cfg.MaxExecutionTime),
			attribute.Int("analysis.max_memory_mb", cfg.MaxMemoryUsageMB),
		))
	defer span.End()

	// The run deadline is threaded through every detector invocation so
	// in-flight work is canceled the moment the budget is exhausted.
	runCtx, cancel := context.WithTimeout(ctx, cfg.ExecutionBudget())
	defer cancel()

	s.logger.Info("Starting gap analysis",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("max_execution_seconds", cfg.MaxExecutionTime),
		zap.Int("max_memory_mb", cfg.MaxMemoryUsageMB),
		zap.Bool("trend_analysis", cfg.IncludeTrendAnalysis),
	)

	mem := newMemoryTracker()

	status := &Status{
		AnalysisID: analysisID,
		State:      StateRunning,
		Stage:      "fetching_assets",
		StartedAt:  started,
	}
	s.recordStatus(runCtx, status)

	assets, err := s.provider.GetAllAssets(runCtx)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, s.failRun(ctx, status, analysisID, started,
				errors.NewTimeoutError(fmt.Sprintf("analysis exceeded %ds execution budget while fetching assets", cfg.MaxExecutionTime)))
		}
		return nil, s.failRun(ctx, status, analysisID, started,
			errors.NewExternalError("asset inventory", "failed to fetch assets").WithCause(err))
	}

	filtered := filterAssets(assets, cfg.AssetFilters)
	assetIndex := make(map[uuid.UUID]*asset.Asset, len(filtered))
	for _, a := range filtered {
		assetIndex[a.ID] = a
	}

	status.AssetsAnalyzed = len(filtered)

	var (
		rawGaps []*gap.Gap
		runErrs []string
		timings = make(map[string]time.Duration)
	)

	for _, d := range s.enabledDetectors(cfg) {
		if runCtx.Err() != nil {
			break
		}

		status.Stage = d.Category().String()
		status.GapsFound = len(rawGaps)
		s.recordStatus(runCtx, status)

		stageStart := time.Now()
		gaps, stageErrs := s.runDetector(runCtx, d, filtered)
		elapsed := time.Since(stageStart)

		timings[d.Category().StageKey()] = elapsed
		detectorDuration.WithLabelValues(d.Category().String()).Observe(elapsed.Seconds())

		rawGaps = append(rawGaps, gaps...)
		runErrs = append(runErrs, stageErrs...)
		mem.Sample()

		s.logger.Debug("Detector stage finished",
			zap.String("analysis_id", analysisID.String()),
			zap.String("detector", d.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Int("raw_gaps", len(gaps)),
			zap.Int("failures", len(stageErrs)),
		)
	}

	unique := deduplicate(rawGaps)
	s.scoreGaps(unique, assetIndex)
	mem.Sample()

	execution := time.Since(started)

	// Post-hoc enforcement stays authoritative even though the deadline
	// context already cancels in-flight work.
	if runCtx.Err() == context.DeadlineExceeded || execution > cfg.ExecutionBudget() {
		return nil, s.failRun(ctx, status, analysisID, started,
			errors.NewTimeoutError(fmt.Sprintf("analysis took %s, exceeding the %ds execution budget", execution.Round(time.Millisecond), cfg.MaxExecutionTime)))
	}
	if mem.PeakMB() > float64(cfg.MaxMemoryUsageMB) {
		return nil, s.failRun(ctx, status, analysisID, started,
			errors.NewMemoryLimitError(fmt.Sprintf("analysis peaked at %.1fMB, exceeding the %dMB memory budget", mem.PeakMB(), cfg.MaxMemoryUsageMB)))
	}

	var trend *TrendAnalysis
	if cfg.IncludeTrendAnalysis {
		trend = s.analyzeTrend(ctx)
	}

	result := s.assembleResult(analysisID, started, execution, filtered, unique, timings, mem.PeakMB(), runErrs, trend)

	status.State = StateCompleted
	status.Stage = ""
	status.GapsFound = result.TotalGapsFound
	s.recordStatus(ctx, status)

	analysesTotal.WithLabelValues("completed").Inc()
	analysisDuration.Observe(execution.Seconds())
	for severity, count := range result.GapsBySeverity {
		gapsFound.WithLabelValues(severity.String()).Add(float64(count))
	}

	s.logger.Info("Gap analysis completed",
		zap.String("analysis_id", analysisID.String()),
		zap.Duration("execution_time", execution),
		zap.Int("assets_analyzed", result.AssetsAnalyzed),
		zap.Int("total_gaps", result.TotalGapsFound),
		zap.Int("detector_failures", len(runErrs)),
		zap.Float64("peak_memory_mb", result.PeakMemoryMB),
	)

	return result, nil
}

// GetAnalysisStatus returns the latest recorded status snapshot for a run
func (s *service) GetAnalysisStatus(ctx context.Context, analysisID uuid.UUID) (*Status, error) {
	if s.statuses == nil {
		return nil, errors.ErrAnalysisNotFound
	}
	return s.statuses.Get(ctx, analysisID)
}

// GenerateResourceAllocationRecommendations delegates to the prioritizer
func (s *service) GenerateResourceAllocationRecommendations(gaps []*gap.Gap) *ResourceAllocation {
	return s.prioritizer.GenerateResourceAllocationRecommendations(gaps)
}

// validateConfig fails fast, before any work starts, on an invalid budget,
// unsupported framework or unsupported filter attribute.
func (s *service) validateConfig(cfg Config) error {
	if cfg.MaxExecutionTime <= 0 {
		return errors.NewValidationError("INVALID_EXECUTION_TIME",
			fmt.Sprintf("max_execution_time_seconds must be positive, got %d", cfg.MaxExecutionTime))
	}
	if cfg.MaxMemoryUsageMB <= 0 {
		return errors.NewValidationError("INVALID_MEMORY_LIMIT",
			fmt.Sprintf("max_memory_usage_mb must be positive, got %d", cfg.MaxMemoryUsageMB))
	}
	if err := s.validate.Struct(cfg); err != nil {
		return errors.NewValidationError("INVALID_CONFIG", err.Error())
	}
	for _, name := range cfg.ComplianceFrameworks {
		if _, err := values.NewComplianceFramework(name); err != nil {
			return err
		}
	}
	for attr := range cfg.AssetFilters {
		if !asset.IsFilterableAttribute(attr) {
			return errors.NewValidationError("UNSUPPORTED_FILTER",
				fmt.Sprintf("'%s' is not a filterable asset attribute", attr))
		}
	}
	return nil
}

// enabledDetectors returns the injected detectors whose category is enabled
// by the config, preserving category order.
func (s *service) enabledDetectors(cfg Config) []Detector {
	enabled := make([]Detector, 0, len(s.detectors))
	for _, d := range s.detectors {
		switch d.Category() {
		case CategoryOrphaned:
			if cfg.DetectOrphaned {
				enabled = append(enabled, d)
			}
		case CategoryDocumentation:
			if cfg.AnalyzeDocumentation {
				enabled = append(enabled, d)
			}
		case CategoryCompliance:
			if cfg.CheckCompliance {
				enabled = append(enabled, d)
			}
		}
	}
	return enabled
}

// runDetector executes one detector stage. Failures never propagate; they
// come back as diagnostic strings for the result's error list.
func (s *service) runDetector(ctx context.Context, d Detector, assets []*asset.Asset) ([]*gap.Gap, []string) {
	ctx, span := s.tracer.Start(ctx, "gapanalysis."+d.Category().String())
	defer span.End()

	if assessor, ok := d.(AssetAssessor); ok && d.Category() == CategoryCompliance {
		return s.assessInBatches(ctx, d, assessor, assets)
	}

	gaps, err := d.Detect(ctx, assets)
	if err != nil {
		detectorFailures.WithLabelValues(d.Category().String()).Inc()
		s.logger.Warn("Detector failed",
			zap.String("detector", d.Name()),
			zap.Error(err),
		)
		return nil, []string{fmt.Sprintf("%s detector failed: %v", d.Name(), err)}
	}
	return gaps, nil
}

// assessInBatches runs per-asset compliance checks in fixed-size batches.
// All checks within a batch run concurrently; the batch is fully awaited
// before the next one starts, and only the coordinating goroutine appends
// to the shared accumulators.
func (s *service) assessInBatches(ctx context.Context, d Detector, assessor AssetAssessor, assets []*asset.Asset) ([]*gap.Gap, []string) {
	var (
		all  []*gap.Gap
		errs []string
	)

	for start := 0; start < len(assets); start += complianceBatchSize {
		if ctx.Err() != nil {
			break
		}

		end := start + complianceBatchSize
		if end > len(assets) {
			end = len(assets)
		}
		batch := assets[start:end]

		results := make([][]*gap.Gap, len(batch))
		failures := make([]error, len(batch))

		var wg sync.WaitGroup
		for i, a := range batch {
			wg.Add(1)
			go func(i int, a *asset.Asset) {
				defer wg.Done()
				results[i], failures[i] = assessor.Assess(ctx, a)
			}(i, a)
		}
		wg.Wait()

		for i, a := range batch {
			if failures[i] != nil {
				detectorFailures.WithLabelValues(d.Category().String()).Inc()
				errs = append(errs, fmt.Sprintf("%s check failed for asset %s: %v", d.Name(), a.ID, failures[i]))
				continue
			}
			all = append(all, results[i]...)
		}
	}

	return all, errs
}

// scoreGaps attaches a priority score to every unique gap. An unresolvable
// owning asset gets the documented MEDIUM fallback instead of failing the run.
func (s *service) scoreGaps(gaps []*gap.Gap, assetIndex map[uuid.UUID]*asset.Asset) {
	for _, g := range gaps {
		owner, ok := assetIndex[g.AssetID]
		if !ok {
			s.logger.Warn("Gap references unknown asset, using fallback score",
				zap.String("gap_id", g.ID.String()),
				zap.String("asset_id", g.AssetID.String()),
			)
			score := s.prioritizer.DefaultScore()
			g.Priority = &score
			continue
		}
		score := s.prioritizer.CalculateGapPriorityScore(g, owner)
		g.Priority = &score
	}
}

// analyzeTrend compares the two most recent historical snapshots. Fewer than
// two snapshots yields "no trend available" rather than an error.
func (s *service) analyzeTrend(ctx context.Context) *TrendAnalysis {
	if s.snapshots == nil {
		return &TrendAnalysis{Available: false, Message: "no snapshot store configured"}
	}

	snapshots, err := s.snapshots.LoadRecentSnapshots(ctx, snapshotWindow)
	if err != nil {
		s.logger.Warn("Failed to load historical snapshots", zap.Error(err))
		return &TrendAnalysis{Available: false, Message: "snapshot history unavailable"}
	}
	if len(snapshots) < 2 {
		return &TrendAnalysis{Available: false, Message: "no trend available"}
	}

	current, previous := snapshots[0], snapshots[1]

	var change float64
	switch {
	case previous.TotalGaps > 0:
		change = float64(current.TotalGaps-previous.TotalGaps) / float64(previous.TotalGaps) * 100
	case current.TotalGaps > 0:
		change = 100
	}

	direction := "stable"
	if current.TotalGaps > previous.TotalGaps {
		direction = "worsening"
	} else if current.TotalGaps < previous.TotalGaps {
		direction = "improving"
	}

	return &TrendAnalysis{
		Available:     true,
		ChangePercent: change,
		Direction:     direction,
		Current:       &current,
		Previous:      &previous,
	}
}

func (s *service) assembleResult(
	analysisID uuid.UUID,
	started time.Time,
	execution time.Duration,
	assets []*asset.Asset,
	gaps []*gap.Gap,
	timings map[string]time.Duration,
	peakMB float64,
	runErrs []string,
	trend *TrendAnalysis,
) *Result {
	byType := make(map[gap.GapType]int)
	bySeverity := make(map[values.Severity]int)
	var scoreSum float64

	for _, g := range gaps {
		byType[g.Type]++
		bySeverity[g.Severity]++
		if g.Priority != nil {
			scoreSum += g.Priority.Score
		}
	}

	summary := Summary{
		HighSeverityGaps:   bySeverity[values.SeverityCritical] + bySeverity[values.SeverityHigh],
		MediumSeverityGaps: bySeverity[values.SeverityMedium],
		LowSeverityGaps:    bySeverity[values.SeverityLow],
	}
	if len(gaps) > 0 {
		summary.AveragePriorityScore = scoreSum / float64(len(gaps))
	}

	return &Result{
		AnalysisID:     analysisID,
		StartedAt:      started,
		ExecutionTime:  execution,
		TotalGapsFound: len(gaps),
		AssetsAnalyzed: len(assets),
		Gaps:           gaps,
		GapsByType:     byType,
		GapsBySeverity: bySeverity,
		StageTimings:   timings,
		PeakMemoryMB:   peakMB,
		Errors:         runErrs,
		Trend:          trend,
		Summary:        summary,
	}
}

// failRun records the failure for pollers, updates metrics and returns the
// typed error unchanged.
func (s *service) failRun(ctx context.Context, status *Status, analysisID uuid.UUID, started time.Time, err error) error {
	status.State = StateFailed
	status.Error = err.Error()
	s.recordStatus(ctx, status)

	analysesTotal.WithLabelValues("failed").Inc()
	s.logger.Error("Gap analysis failed",
		zap.String("analysis_id", analysisID.String()),
		zap.Duration("elapsed", time.Since(started)),
		zap.Error(err),
	)
	return err
}

func (s *service) recordStatus(ctx context.Context, status *Status) {
	if s.statuses == nil {
		return
	}
	status.UpdatedAt = time.Now()
	if err := s.statuses.Set(ctx, status); err != nil {
		s.logger.Warn("Failed to record analysis status",
			zap.String("analysis_id", status.AnalysisID.String()),
			zap.Error(err),
		)
	}
}

// filterAssets keeps assets matching every filter constraint. Comparison is
// case-insensitive; assets missing a filtered attribute are excluded.
func filterAssets(assets []*asset.Asset, filters map[string][]string) []*asset.Asset {
	if len(filters) == 0 {
		return assets
	}
	filtered := make([]*asset.Asset, 0, len(assets))
	for _, a := range assets {
		if a.MatchesFilters(filters) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// deduplicate keeps the first gap encountered for each unique signature in
// detection order. Idempotent: re-running it over its own output is a no-op.
func deduplicate(gaps []*gap.Gap) []*gap.Gap {
	seen := make(map[string]struct{}, len(gaps))
	unique := make([]*gap.Gap, 0, len(gaps))
	for _, g := range gaps {
		sig := g.Signature()
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		unique = append(unique, g)
	}
	return unique
}
