package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

type fakeCatalogSrv struct {
	catalog    *dto.CatalogResponse
	catalogErr error
	lastFilter dto.CatalogFilter
	refreshErr error
	refreshed  int
}

func (f *fakeCatalogSrv) Catalog(filter dto.CatalogFilter) (*dto.CatalogResponse, error) {
	f.lastFilter = filter
	return f.catalog, f.catalogErr
}

func (f *fakeCatalogSrv) Refresh(context.Context) error {
	f.refreshed++
	return f.refreshErr
}

func TestCatalogHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCatalogSrv{catalog: &dto.CatalogResponse{TotalSections: 7}}
	handler := NewCatalogHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/catalog?course=CSE327&instructor=NbM", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CSE327", srv.lastFilter.CourseCode)
	assert.Equal(t, "NbM", srv.lastFilter.Instructor)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(7), envelope.Data["totalSections"])
}

func TestCatalogHandlerRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCatalogSrv{}
	handler := NewCatalogHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/catalog/refresh", nil)

	handler.Refresh(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, srv.refreshed)
}

func TestCatalogHandlerRefreshUpstreamFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler(&fakeCatalogSrv{
		refreshErr: appErrors.Clone(appErrors.ErrUpstream, "portal returned HTTP 503"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/catalog/refresh", nil)

	handler.Refresh(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
