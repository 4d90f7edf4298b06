package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/caldermont/data-governance-backend/internal/domain/errors"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

// SnapshotSaver records a gap-count observation after a successful run so
// later runs can compute trends. Optional.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, s gapanalysis.Snapshot) error
}

// Handler exposes the gap analysis service over HTTP
type Handler struct {
	logger    *slog.Logger
	service   gapanalysis.Service
	snapshots SnapshotSaver
}

// NewHandler creates the REST handler set
func NewHandler(logger *slog.Logger, service gapanalysis.Service, snapshots SnapshotSaver) *Handler {
	return &Handler{logger: logger, service: service, snapshots: snapshots}
}

// RunAnalysis handles POST /api/v1/analyses
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var cfg gapanalysis.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, domainerrors.NewValidationError("INVALID_BODY", "request body must be a valid analysis configuration"))
		return
	}

	result, err := h.service.AnalyzeGaps(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordSnapshot(r, result)
	writeJSON(w, http.StatusOK, result)
}

// GetAnalysisStatus handles GET /api/v1/analyses/{id}
func (h *Handler) GetAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	analysisID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, domainerrors.NewValidationError("INVALID_ANALYSIS_ID", "analysis id must be a UUID"))
		return
	}

	status, err := h.service.GetAnalysisStatus(r.Context(), analysisID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type recommendationsRequest struct {
	Gaps []*gap.Gap `json:"gaps"`
}

// GenerateRecommendations handles POST /api/v1/recommendations
func (h *Handler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.NewValidationError("INVALID_BODY", "request body must contain a gap list"))
		return
	}

	allocation := h.service.GenerateResourceAllocationRecommendations(req.Gaps)
	writeJSON(w, http.StatusOK, allocation)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) recordSnapshot(r *http.Request, result *gapanalysis.Result) {
	if h.snapshots == nil {
		return
	}
	snapshot := gapanalysis.Snapshot{
		Date:         time.Now().UTC(),
		TotalGaps:    result.TotalGapsFound,
		CriticalGaps: result.GapsBySeverity[values.SeverityCritical],
		HighGaps:     result.GapsBySeverity[values.SeverityHigh],
	}
	if err := h.snapshots.SaveSnapshot(r.Context(), snapshot); err != nil {
		h.logger.WarnContext(r.Context(), "failed to save gap snapshot", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error *domainerrors.AppError `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.NewInternalError("internal error")
	}
	writeJSON(w, appErr.StatusCode, errorResponse{Error: appErr})
}
