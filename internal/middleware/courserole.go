package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradekit/sga-api/internal/models"
	"github.com/gradekit/sga-api/internal/utils"
)

// ErrCourseNotFound is the sentinel a CourseRoleResolver returns when the
// external identifier matches no course. Only this error maps to a 404; any
// other lookup failure surfaces as a 500.
var ErrCourseNotFound = errors.New("course not found")

// CourseRoleResolver resolves a course by its external identifier and the
// caller's role within it.
type CourseRoleResolver interface {
	GetCourseByExternalID(ctx context.Context, externalID string) (models.Course, error)
	ResolveRole(ctx context.Context, userID, courseID uint) (models.Role, error)
}

// RequireCourseRole loads the course named by the :courseID route parameter,
// resolves the caller's role in it and rejects the request unless the role is
// one of the allowed set. The resolved course and role are stored in Locals
// under "course" and "course_role" for downstream handlers.
func RequireCourseRole(resolver CourseRoleResolver, logger zerolog.Logger, allowed ...models.Role) fiber.Handler {
	allowedSet := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		course, err := resolver.GetCourseByExternalID(c.UserContext(), c.Params("courseID"))
		if err != nil {
			if errors.Is(err, ErrCourseNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "course not found")
			}
			logger.Error().Err(err).Str("course", c.Params("courseID")).Msg("course lookup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve course")
		}

		role, err := resolver.ResolveRole(c.UserContext(), userID, course.ID)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve course role")
		}
		if _, ok := allowedSet[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		c.Locals("course", course)
		c.Locals("course_role", role)

		return c.Next()
	}
}

// CourseFromContext returns the course loaded by RequireCourseRole.
func CourseFromContext(c *fiber.Ctx) (models.Course, bool) {
	course, ok := c.Locals("course").(models.Course)
	return course, ok
}

// CourseRoleFromContext returns the role resolved by RequireCourseRole.
func CourseRoleFromContext(c *fiber.Ctx) models.Role {
	if role, ok := c.Locals("course_role").(models.Role); ok {
		return role
	}
	return models.RoleNone
}
