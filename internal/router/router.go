package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/config"
	"github.com/gradekit/sga-api/internal/handler"
	"github.com/gradekit/sga-api/internal/middleware"
	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler     *handler.CourseHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	ExportHandler     *handler.ExportHandler
	RoleResolver      middleware.CourseRoleResolver
	JWTMiddleware     fiber.Handler
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	anyMember := middleware.RequireCourseRole(deps.RoleResolver, deps.Logger, models.RoleAdmin, models.RoleGrader, models.RoleStudent)
	staffOnly := middleware.RequireCourseRole(deps.RoleResolver, deps.Logger, models.RoleAdmin, models.RoleGrader)
	adminOnly := middleware.RequireCourseRole(deps.RoleResolver, deps.Logger, models.RoleAdmin)
	studentOnly := middleware.RequireCourseRole(deps.RoleResolver, deps.Logger, models.RoleStudent)

	courses := api.Group("/courses/:courseID", jwtMiddleware)

	courses.Get("", anyMember, deps.CourseHandler.GetCourse)
	courses.Get("/students", staffOnly, deps.CourseHandler.ListStudents)

	// Grader administration
	courses.Get("/graders", adminOnly, deps.CourseHandler.ListGraders)
	courses.Post("/graders", adminOnly, deps.CourseHandler.EnrollGrader)
	courses.Delete("/graders/:graderID", adminOnly, deps.CourseHandler.RemoveGrader)
	courses.Put("/students/:studentID/grader", adminOnly, deps.CourseHandler.AssignGrader)

	// Staff assignment views
	courses.Get("/assignments", staffOnly, deps.AssignmentHandler.ListAssignments)
	courses.Get("/assignments/:assignmentID", staffOnly, deps.AssignmentHandler.GetAssignment)
	courses.Get("/assignments/:assignmentID/export", staffOnly, deps.ExportHandler.DownloadArchive)

	uploadLimit := middleware.UploadRateLimit(10, time.Minute)

	// Student submission flow
	courses.Get("/assignments/:assignmentID/submission", studentOnly, deps.SubmissionHandler.GetOwnSubmission)
	courses.Post("/assignments/:assignmentID/submission", studentOnly, uploadLimit, deps.SubmissionHandler.Submit)
	courses.Get("/assignments/:assignmentID/submission/documents/:kind", studentOnly, deps.SubmissionHandler.DownloadOwnDocument)

	// Staff grading flow
	courses.Get("/assignments/:assignmentID/submissions/:username", staffOnly, deps.SubmissionHandler.GetSubmission)
	courses.Post("/assignments/:assignmentID/submissions/:username/grade", staffOnly, uploadLimit, deps.SubmissionHandler.Grade)
	courses.Post("/assignments/:assignmentID/submissions/:username/unsubmit", adminOnly, deps.SubmissionHandler.Unsubmit)
	courses.Get("/assignments/:assignmentID/submissions/:username/documents/:kind", staffOnly, deps.SubmissionHandler.DownloadDocument)
}
