package handler

import (
	"bufio"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/service"
	"github.com/gradekit/sga-api/internal/utils"
)

// ExportHandler streams zip archives of submitted documents.
type ExportHandler struct {
	exports service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler builds an export handler instance.
func NewExportHandler(exports service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// DownloadArchive streams every submitted document of the assignment as a zip
// archive. Entries are flushed as they are written so the download starts
// before the archive is complete; a mid-stream failure leaves the client with
// a truncated file instead of a valid partial archive.
func (h *ExportHandler) DownloadArchive(c *fiber.Ctx) error {
	name, entries, err := h.exports.AssignmentArchive(c.UserContext(), courseIDFromContext(c), c.Params("assignmentID"))
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to prepare archive")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
	logger := *requestLogger(h.logger, c)

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`.zip"`)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := h.exports.Stream(ctx, entries, w, w.Flush); err != nil {
			logger.Error().Err(err).Str("archive", name).Msg("archive stream aborted")
		}
	})

	return nil
}
