package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arashi-labs/weft-scheduler/internal/dto"
	"github.com/arashi-labs/weft-scheduler/internal/models"
	"github.com/arashi-labs/weft-scheduler/internal/service"
	"github.com/arashi-labs/weft-scheduler/pkg/export"
	appErrors "github.com/arashi-labs/weft-scheduler/pkg/errors"
	"github.com/arashi-labs/weft-scheduler/pkg/response"
)

type schedulePreviewResponse struct {
	Mode     string                        `json:"mode"`
	Proposal *dto.GenerateScheduleResponse `json:"proposal"`
}

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	GenerateAsync(ctx context.Context, req dto.GenerateScheduleRequest) (string, error)
	JobStatus(jobID string) (dto.GenerateJobStatus, bool)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error)
	List(ctx context.Context, query dto.SemesterScheduleQuery) ([]models.SemesterSchedule, error)
	GetSlots(ctx context.Context, id string) ([]models.SemesterScheduleSlot, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleGeneratorHandler exposes scheduler endpoints.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Generate conflict-free schedule proposal (legacy endpoint)
// @Description Legacy path kept for backward compatibility. Prefer /schedules/generator for new integrations.
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	h.handleGenerate(c)
}

// GenerateAlias godoc
// @Summary Generate schedule proposal (canonical alias)
// @Description Preferred endpoint for UI preview mode. Responses include mode metadata to distinguish preview vs. persisted schedules.
// @Tags Academics
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generator [post]
func (h *ScheduleGeneratorHandler) GenerateAlias(c *gin.Context) {
	h.handleGenerate(c)
}

// Save godoc
// @Summary Save schedule proposal to semester schedules
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"scheduleId": id})
}

// List godoc
// @Summary List semester schedules for class-term
// @Tags Scheduler
// @Produce json
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /semester-schedule [get]
func (h *ScheduleGeneratorHandler) List(c *gin.Context) {
	query := dto.SemesterScheduleQuery{
		TermID:  c.Query("termId"),
		ClassID: c.Query("classId"),
	}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Slots godoc
// @Summary Get slots for a semester schedule
// @Tags Scheduler
// @Produce json
// @Param id path string true "Semester schedule ID"
// @Success 200 {object} response.Envelope
// @Router /semester-schedule/{id}/slots [get]
func (h *ScheduleGeneratorHandler) Slots(c *gin.Context) {
	slots, err := h.service.GetSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ExportCSV godoc
// @Summary Export a semester schedule's slots as CSV
// @Tags Scheduler
// @Produce text/csv
// @Param id path string true "Semester schedule ID"
// @Success 200 {file} binary
// @Router /semester-schedule/{id}/export [get]
func (h *ScheduleGeneratorHandler) ExportCSV(c *gin.Context) {
	id := c.Param("id")
	slots, err := h.service.GetSlots(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"day_of_week", "time_slot", "duration", "subject_id", "teacher_id", "room"},
	}
	for _, slot := range slots {
		room := ""
		if slot.Room != nil {
			room = *slot.Room
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"day_of_week": strconv.Itoa(slot.DayOfWeek),
			"time_slot":   strconv.Itoa(slot.TimeSlot),
			"duration":    strconv.Itoa(slot.Duration),
			"subject_id":  slot.SubjectID,
			"teacher_id":  slot.TeacherID,
			"room":        room,
		})
	}

	csvBytes, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render csv"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", id))
	c.Data(http.StatusOK, "text/csv", csvBytes)
}

// Delete godoc
// @Summary Delete draft semester schedule
// @Tags Scheduler
// @Param id path string true "Semester schedule ID"
// @Success 204
// @Router /semester-schedule/{id} [delete]
func (h *ScheduleGeneratorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateAsyncHandler godoc
// @Summary Queue a schedule proposal generation job
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 202 {object} response.Envelope
// @Router /schedules/generator/async [post]
func (h *ScheduleGeneratorHandler) GenerateAsyncHandler(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	jobID, err := h.service.GenerateAsync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"jobId": jobID}, nil)
}

// GenerateJobStatus godoc
// @Summary Poll an asynchronously queued generation job
// @Tags Scheduler
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/generator/async/{jobId} [get]
func (h *ScheduleGeneratorHandler) GenerateJobStatus(c *gin.Context) {
	status, ok := h.service.JobStatus(c.Param("jobId"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "job not found"))
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

func (h *ScheduleGeneratorHandler) handleGenerate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := schedulePreviewResponse{
		Mode:     "preview",
		Proposal: result,
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
