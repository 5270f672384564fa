package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
	"github.com/nsu-tools/course-scheduler-api/pkg/response"
)

type catalogService interface {
	Catalog(filter dto.CatalogFilter) (*dto.CatalogResponse, error)
	Refresh(ctx context.Context) error
}

// CatalogHandler exposes the scraped course catalog.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary Current course catalog
// @Tags Catalog
// @Produce json
// @Param course query string false "Filter by course code"
// @Param instructor query string false "Filter by instructor initials"
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	catalog, err := h.service.Catalog(dto.CatalogFilter{
		CourseCode: strings.TrimSpace(c.Query("course")),
		Instructor: strings.TrimSpace(c.Query("instructor")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}

// Refresh godoc
// @Summary Force a catalog refresh
// @Description Fetches the offered-courses page immediately instead of waiting for the periodic cycle.
// @Tags Catalog
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"refreshed": true})
}
