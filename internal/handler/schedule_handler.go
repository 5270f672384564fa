package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nsu-tools/course-scheduler-api/internal/dto"
	"github.com/nsu-tools/course-scheduler-api/internal/middleware"
	"github.com/nsu-tools/course-scheduler-api/internal/service"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
	"github.com/nsu-tools/course-scheduler-api/pkg/response"
)

type scheduleService interface {
	Latest(ctx context.Context) (*dto.GenerationResponse, bool, error)
	GenerateCustom(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerationResponse, error)
	Status(ctx context.Context) (*dto.StatusResponse, error)
}

type exportService interface {
	ExportSchedules(ctx context.Context, format string) (*service.ExportResult, error)
}

// ScheduleHandler wires the schedule generator to HTTP endpoints.
type ScheduleHandler struct {
	service  scheduleService
	exporter exportService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleService, exporter exportService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, exporter: exporter}
}

// Latest godoc
// @Summary Latest ranked schedules
// @Description Returns the most recent default-mode generation result, served from cache when fresh.
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) Latest(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// Generate godoc
// @Summary Generate schedules with a custom rule set
// @Description Runs a one-off generation with the supplied constraint configuration. The result is not persisted.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body dto.GenerateScheduleRequest true "Constraint configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.GenerateCustom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download the latest schedules
// @Tags Schedules
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	result, err := h.exporter.ExportSchedules(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Status godoc
// @Summary Scheduler status
// @Description Reports catalog freshness and the latest generation run.
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *ScheduleHandler) Status(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
