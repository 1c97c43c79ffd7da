package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/utils"
)

// AssignmentHandler serves the staff assignment views.
type AssignmentHandler struct {
	progress service.ProgressService
	graders  service.GraderService
	logger   zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(progress service.ProgressService, graders service.GraderService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		progress: progress,
		graders:  graders,
		logger:   logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// ListAssignments returns every assignment of the course with progress
// counters. Graders see the counters scoped to their own roster.
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	var graderID *uint
	if middleware.CourseRoleFromContext(c) == models.RoleGrader {
		grader, err := h.graders.GraderForUser(c.UserContext(), course.ID, userIDFromContext(c))
		if err != nil {
			return h.handleError(c, err)
		}
		graderID = &grader.ID
	}

	assignments, err := h.progress.CourseAssignments(c.UserContext(), course.ID, graderID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

// GetAssignment returns one assignment with per-student submission rows.
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	detail, err := h.progress.AssignmentDetail(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", detail)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrGraderNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "grader not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
