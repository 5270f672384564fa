package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	"github.com/nsu-tools/course-scheduler-api/internal/service"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

type fakeScheduleSrv struct {
	latest    *dto.GenerationResponse
	latestHit bool
	latestErr error
	custom    *dto.GenerationResponse
	customErr error
	lastReq   dto.GenerateScheduleRequest
	status    *dto.StatusResponse
	statusErr error
}

func (f *fakeScheduleSrv) Latest(context.Context) (*dto.GenerationResponse, bool, error) {
	return f.latest, f.latestHit, f.latestErr
}

func (f *fakeScheduleSrv) GenerateCustom(_ context.Context, req dto.GenerateScheduleRequest) (*dto.GenerationResponse, error) {
	f.lastReq = req
	return f.custom, f.customErr
}

func (f *fakeScheduleSrv) Status(context.Context) (*dto.StatusResponse, error) {
	return f.status, f.statusErr
}

type fakeExportSrv struct {
	result *service.ExportResult
	err    error
	format string
}

func (f *fakeExportSrv) ExportSchedules(_ context.Context, format string) (*service.ExportResult, error) {
	f.format = format
	return f.result, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func TestScheduleHandlerLatest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{
		latest:    &dto.GenerationResponse{RunID: "run-1", TotalFound: 2},
		latestHit: true,
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "run-1", envelope.Data["runId"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestScheduleHandlerLatestPreconditionFailed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{
		latestErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "catalog not ready"),
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules", nil)

	handler.Latest(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestScheduleHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{custom: &dto.GenerationResponse{RunID: "custom-1"}}
	handler := NewScheduleHandler(srv, nil)

	body := `{"requiredCourses":["CSE327","ENG115"],"maxDistinctDays":4}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/generate", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"CSE327", "ENG115"}, srv.lastReq.RequiredCourses)
	assert.Equal(t, 4, srv.lastReq.MaxDistinctDays)
}

func TestScheduleHandlerGenerateRejectsEmptyCourses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/generate", strings.NewReader(`{"requiredCourses":[]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandlerGenerateBudgetExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{
		customErr: appErrors.ErrBudgetExceeded,
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/generate", strings.NewReader(`{"requiredCourses":["CSE327"]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestScheduleHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeExportSrv{result: &service.ExportResult{
		Content:     []byte("Rank,Score\n"),
		ContentType: "text/csv",
		Filename:    "schedules-x.csv",
	}}
	handler := NewScheduleHandler(&fakeScheduleSrv{}, exporter)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/export?format=CSV", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.format, "format is lowercased")
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedules-x.csv")
	assert.Equal(t, "Rank,Score\n", rec.Body.String())
}

func TestScheduleHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{
		status: &dto.StatusResponse{LastRunID: "run-9", CatalogSections: 42},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/status", nil)

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "run-9", envelope.Data["lastRunId"])
	assert.Equal(t, float64(42), envelope.Data["catalogSections"])
}
