package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/dto"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/storage"
	"github.com/gradekit/sga-api/internal/utils"
)

// SubmissionHandler manages the student and staff submission endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// GetOwnSubmission returns the calling student's submission for the
// assignment, creating the record on first view.
func (h *SubmissionHandler) GetOwnSubmission(c *fiber.Ctx) error {
	submission, err := h.submissions.GetForStudent(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"), userIDFromContext(c), usernameFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// Submit stores the student's uploaded document and marks the submission
// submitted.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var payload dto.StudentSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	submission, err := h.submissions.Submit(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"), userIDFromContext(c), usernameFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission uploaded", submission)
}

// DownloadOwnDocument streams a document of the caller's own submission.
func (h *SubmissionHandler) DownloadOwnDocument(c *fiber.Ctx) error {
	kind, err := parseDocumentKind(c.Params("kind"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return h.streamDocument(c, c.Params("assignmentID"), usernameFromContext(c), kind)
}

// GetSubmission returns a student's submission for staff, creating the record
// on first view.
func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	submission, err := h.submissions.GetForStaff(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"), c.Params("username"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// Grade records a score and optional feedback document on a submission.
func (h *SubmissionHandler) Grade(c *fiber.Ctx) error {
	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// The graded document is optional; fiber returns an error when the part
	// is absent, which is not a failure here.
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	actor := service.GradingActor{
		UserID:   userIDFromContext(c),
		Username: usernameFromContext(c),
	}

	submission, err := h.grading.Grade(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"), c.Params("username"), actor, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

// Unsubmit returns a graded submission to the unsubmitted state so the
// student can upload a new document.
func (h *SubmissionHandler) Unsubmit(c *fiber.Ctx) error {
	submission, err := h.grading.Unsubmit(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"), c.Params("username"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission reopened", submission)
}

// DownloadDocument streams a submission document for staff.
func (h *SubmissionHandler) DownloadDocument(c *fiber.Ctx) error {
	kind, err := parseDocumentKind(c.Params("kind"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return h.streamDocument(c, c.Params("assignmentID"), c.Params("username"), kind)
}

func (h *SubmissionHandler) streamDocument(c *fiber.Ctx, assignmentExternalID, username string, kind storage.DocumentKind) error {
	reader, size, filename, err := h.submissions.OpenDocument(c.UserContext(), courseIDFromContext(c), assignmentExternalID, username, kind)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.SendStream(reader, int(size))
}

func parseDocumentKind(raw string) (storage.DocumentKind, error) {
	switch storage.DocumentKind(raw) {
	case storage.StudentDocument:
		return storage.StudentDocument, nil
	case storage.GraderDocument:
		return storage.GraderDocument, nil
	default:
		return "", errors.New("unknown document kind")
	}
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDocumentMissing):
		return utils.SendError(c, fiber.StatusNotFound, "document not found")
	case errors.Is(err, service.ErrPastDeadline):
		return utils.SendError(c, fiber.StatusForbidden, "assignment deadline has passed")
	case errors.Is(err, service.ErrFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "file type is not allowed")
	case errors.Is(err, models.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
