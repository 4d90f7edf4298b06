package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/caldermont/data-governance-backend/internal/domain/errors"
	"github.com/caldermont/data-governance-backend/internal/domain/gap"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
	"github.com/caldermont/data-governance-backend/internal/testutil/fixtures"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AnalyzeGaps(ctx context.Context, cfg gapanalysis.Config) (*gapanalysis.Result, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gapanalysis.Result), args.Error(1)
}

func (m *MockService) GetAnalysisStatus(ctx context.Context, analysisID uuid.UUID) (*gapanalysis.Status, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gapanalysis.Status), args.Error(1)
}

func (m *MockService) GenerateResourceAllocationRecommendations(gaps []*gap.Gap) *gapanalysis.ResourceAllocation {
	args := m.Called(gaps)
	return args.Get(0).(*gapanalysis.ResourceAllocation)
}

type MockSnapshotSaver struct {
	mock.Mock
}

func (m *MockSnapshotSaver) SaveSnapshot(ctx context.Context, s gapanalysis.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunAnalysis(t *testing.T) {
	svc := new(MockService)
	saver := new(MockSnapshotSaver)
	handler := NewHandler(testLogger(), svc, saver)

	result := &gapanalysis.Result{
		AnalysisID:     uuid.New(),
		TotalGapsFound: 2,
		AssetsAnalyzed: 5,
		GapsBySeverity: map[values.Severity]int{
			values.SeverityCritical: 1,
			values.SeverityHigh:     1,
		},
	}
	svc.On("AnalyzeGaps", mock.Anything, mock.Anything).Return(result, nil)
	saver.On("SaveSnapshot", mock.Anything, mock.MatchedBy(func(s gapanalysis.Snapshot) bool {
		return s.TotalGaps == 2 && s.CriticalGaps == 1 && s.HighGaps == 1
	})).Return(nil)

	body := `{"detect_orphaned": true, "max_execution_time_seconds": 60, "max_memory_usage_mb": 512}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.RunAnalysis(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var decoded gapanalysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, result.AnalysisID, decoded.AnalysisID)
	assert.Equal(t, 2, decoded.TotalGapsFound)

	saver.AssertExpectations(t)
}

func TestRunAnalysis_InvalidBody(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(testLogger(), svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.RunAnalysis(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "AnalyzeGaps", mock.Anything, mock.Anything)
}

func TestRunAnalysis_ServiceErrorsMapToStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", domainerrors.NewValidationError("INVALID_EXECUTION_TIME", "must be positive"), http.StatusBadRequest},
		{"timeout", domainerrors.NewTimeoutError("budget exceeded"), http.StatusGatewayTimeout},
		{"memory", domainerrors.NewMemoryLimitError("limit exceeded"), http.StatusInsufficientStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("AnalyzeGaps", mock.Anything, mock.Anything).Return(nil, tt.err)
			handler := NewHandler(testLogger(), svc, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", bytes.NewReader([]byte(`{}`)))
			rec := httptest.NewRecorder()

			handler.RunAnalysis(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Error *domainerrors.AppError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.NotEmpty(t, resp.Error.Code)
		})
	}
}

func statusRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+id, nil)
	req.SetPathValue("id", id)
	return req
}

func TestGetAnalysisStatus(t *testing.T) {
	analysisID := uuid.New()
	svc := new(MockService)
	svc.On("GetAnalysisStatus", mock.Anything, analysisID).Return(&gapanalysis.Status{
		AnalysisID: analysisID,
		State:      gapanalysis.StateCompleted,
		GapsFound:  3,
	}, nil)
	handler := NewHandler(testLogger(), svc, nil)

	rec := httptest.NewRecorder()
	handler.GetAnalysisStatus(rec, statusRequest(analysisID.String()))

	assert.Equal(t, http.StatusOK, rec.Code)

	var status gapanalysis.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, gapanalysis.StateCompleted, status.State)
	assert.Equal(t, 3, status.GapsFound)
}

func TestGetAnalysisStatus_BadID(t *testing.T) {
	svc := new(MockService)
	handler := NewHandler(testLogger(), svc, nil)

	rec := httptest.NewRecorder()
	handler.GetAnalysisStatus(rec, statusRequest("not-a-uuid"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetAnalysisStatus", mock.Anything, mock.Anything)
}

func TestGetAnalysisStatus_NotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("GetAnalysisStatus", mock.Anything, mock.Anything).Return(nil, domainerrors.ErrAnalysisNotFound)
	handler := NewHandler(testLogger(), svc, nil)

	rec := httptest.NewRecorder()
	handler.GetAnalysisStatus(rec, statusRequest(uuid.NewString()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateRecommendations(t *testing.T) {
	svc := new(MockService)
	svc.On("GenerateResourceAllocationRecommendations", mock.Anything).Return(&gapanalysis.ResourceAllocation{
		ImmediateActionGaps:      1,
		ScheduledActionGaps:      2,
		RecommendedTimelineWeeks: 2,
	})
	handler := NewHandler(testLogger(), svc, nil)

	payload, err := json.Marshal(map[string]interface{}{
		"gaps": []*gap.Gap{fixtures.NewGapBuilder(t).Build()},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.GenerateRecommendations(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var alloc gapanalysis.ResourceAllocation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alloc))
	assert.Equal(t, 1, alloc.ImmediateActionGaps)
	assert.Equal(t, 2, alloc.ScheduledActionGaps)
}

func TestHealth(t *testing.T) {
	handler := NewHandler(testLogger(), new(MockService), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
