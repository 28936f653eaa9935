package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-scheduler-api/internal/middleware"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	GenerateSection(ctx context.Context, sectionID string) (*dto.GenerateScheduleResponse, error)
	GenerateYearLevel(ctx context.Context, yearLevel int, sectionFilter string) (*dto.GenerateScheduleResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (*models.Timetable, error)
}

type bulkScheduler interface {
	Enqueue(ctx context.Context, req dto.BulkGenerateRequest) (*models.BulkJob, error)
	Get(id string) (*models.BulkJob, error)
}

// ScheduleGeneratorHandler exposes scheduler endpoints.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
	bulk    bulkScheduler
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService, bulk *service.BulkService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc, bulk: bulk}
}

// GenerateSection godoc
// @Summary Generate a timetable proposal for one section
// @Tags Scheduler
// @Produce json
// @Param section path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/sections/{section}/generate [post]
func (h *ScheduleGeneratorHandler) GenerateSection(c *gin.Context) {
	sectionID := strings.TrimSpace(c.Param("section"))
	if sectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section is required"))
		return
	}
	proposal, err := h.service.GenerateSection(c.Request.Context(), sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondProposal(c, proposal)
}

// GenerateYearLevel godoc
// @Summary Generate a combined timetable proposal for a year level
// @Description Shared courses are placed once for every section, then each section is filled on the same ledger.
// @Tags Scheduler
// @Produce json
// @Param yearLevel path int true "Year level"
// @Param section query string false "Show shared sessions plus this section's own"
// @Success 200 {object} response.Envelope
// @Router /schedules/year-levels/{yearLevel}/generate [post]
func (h *ScheduleGeneratorHandler) GenerateYearLevel(c *gin.Context) {
	yearLevel, err := strconv.Atoi(c.Param("yearLevel"))
	if err != nil || yearLevel < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "yearLevel must be a positive number"))
		return
	}
	proposal, err := h.service.GenerateYearLevel(c.Request.Context(), yearLevel, strings.TrimSpace(c.Query("section")))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondProposal(c, proposal)
}

func respondProposal(c *gin.Context, proposal *dto.GenerateScheduleResponse) {
	internalmiddleware.SetCacheHit(c, proposal.Cached)
	response.JSON(c, http.StatusOK, proposal, nil, internalmiddleware.ExtractMeta(c))
}

// Save godoc
// @Summary Save schedule proposal as a new timetable version
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	timetable, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Bulk godoc
// @Summary Regenerate draft timetables for year levels in the background
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.BulkGenerateRequest false "Year levels; empty means all"
// @Success 202 {object} response.Envelope
// @Router /schedules/bulk [post]
func (h *ScheduleGeneratorHandler) Bulk(c *gin.Context) {
	var req dto.BulkGenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
			return
		}
	}
	job, err := h.bulk.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// BulkStatus godoc
// @Summary Get bulk regeneration status
// @Tags Scheduler
// @Produce json
// @Param id path string true "Bulk job ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/bulk/{id} [get]
func (h *ScheduleGeneratorHandler) BulkStatus(c *gin.Context) {
	job, err := h.bulk.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
