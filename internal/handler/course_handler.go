package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/utils"
)

// CourseHandler manages course and grader administration endpoints.
type CourseHandler struct {
	courses service.CourseService
	graders service.GraderService
	logger  zerolog.Logger
}

// NewCourseHandler builds a course handler instance.
func NewCourseHandler(courses service.CourseService, graders service.GraderService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		graders: graders,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// GetCourse returns the course identified by the :courseID route parameter.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.courses.GetCourse(c.UserContext(), c.Params("courseID"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

// ListStudents returns every enrolled student with their ungraded counter.
func (h *CourseHandler) ListStudents(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	students, err := h.courses.ListStudents(c.UserContext(), course.ID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

// ListGraders returns the grader roster with workload counters.
func (h *CourseHandler) ListGraders(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	graders, err := h.graders.List(c.UserContext(), course.ID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graders retrieved", graders)
}

// EnrollGrader registers a user as a grader for the course.
func (h *CourseHandler) EnrollGrader(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	var payload dto.EnrollGraderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grader, err := h.graders.Enroll(c.UserContext(), course.ID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grader enrolled", grader)
}

// RemoveGrader deletes a grader and releases their roster.
func (h *CourseHandler) RemoveGrader(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	graderID, err := parseUintParam(c, "graderID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grader id")
	}

	if err := h.graders.Remove(c.UserContext(), course.ID, graderID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grader removed", nil)
}

// AssignGrader moves a student onto a grader's roster, or clears the
// assignment when the payload carries a null grader.
func (h *CourseHandler) AssignGrader(c *fiber.Ctx) error {
	course, ok := middleware.CourseFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusInternalServerError, "course not resolved")
	}

	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	var payload dto.AssignGraderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.graders.AssignStudent(c.UserContext(), course.ID, studentID, payload.GraderID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grader assigned", nil)
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrGraderNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "grader not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrGraderFull):
		return utils.SendError(c, fiber.StatusConflict, "grader has no available slots")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
