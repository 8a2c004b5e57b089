package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arashi-labs/weft-scheduler/internal/models"
	"github.com/arashi-labs/weft-scheduler/internal/service"
	appErrors "github.com/arashi-labs/weft-scheduler/pkg/errors"
	"github.com/arashi-labs/weft-scheduler/pkg/response"
)

type teacherAssignmentService interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error)
	Assign(ctx context.Context, teacherID string, req service.CreateTeacherAssignmentRequest) (*models.TeacherAssignment, error)
	Remove(ctx context.Context, teacherID, assignmentID string) error
}

// TeacherAssignmentHandler exposes the faculty roster feeding the scheduler's
// demand expansion: which teacher covers which class/subject/term.
type TeacherAssignmentHandler struct {
	service teacherAssignmentService
}

// NewTeacherAssignmentHandler constructs the handler.
func NewTeacherAssignmentHandler(svc teacherAssignmentService) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments for a teacher
// @Tags Teacher Assignments
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [get]
func (h *TeacherAssignmentHandler) List(c *gin.Context) {
	assignments, err := h.service.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Create godoc
// @Summary Assign a teacher to a class/subject/term
// @Tags Teacher Assignments
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.CreateTeacherAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/assignments [post]
func (h *TeacherAssignmentHandler) Create(c *gin.Context) {
	var req service.CreateTeacherAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete godoc
// @Summary Remove a teacher assignment
// @Tags Teacher Assignments
// @Param id path string true "Teacher ID"
// @Param aid path string true "Assignment ID"
// @Success 204
// @Router /teachers/{id}/assignments/{aid} [delete]
func (h *TeacherAssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), c.Param("aid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
