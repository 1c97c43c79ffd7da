package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradekit/sga-api/internal/models"
)

type fakeResolver struct {
	course models.Course
	err    error
	roles  map[uint]models.Role
}

func (f *fakeResolver) GetCourseByExternalID(_ context.Context, externalID string) (models.Course, error) {
	if f.err != nil {
		return models.Course{}, f.err
	}
	if externalID != f.course.ExternalID {
		return models.Course{}, ErrCourseNotFound
	}
	return f.course, nil
}

func (f *fakeResolver) ResolveRole(_ context.Context, userID, _ uint) (models.Role, error) {
	if role, ok := f.roles[userID]; ok {
		return role, nil
	}
	return models.RoleNone, nil
}

func newGuardedApp(resolver CourseRoleResolver, userID uint, allowed ...models.Role) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	app.Get("/courses/:courseID", RequireCourseRole(resolver, zerolog.Nop(), allowed...), func(c *fiber.Ctx) error {
		course, ok := CourseFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"course": course.ExternalID, "role": CourseRoleFromContext(c)})
	})
	return app
}

func TestRequireCourseRoleAllowsStaff(t *testing.T) {
	resolver := &fakeResolver{
		course: models.Course{ExternalID: "cs101"},
		roles:  map[uint]models.Role{7: models.RoleGrader},
	}
	app := newGuardedApp(resolver, 7, models.RoleAdmin, models.RoleGrader)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireCourseRoleRejectsWrongRole(t *testing.T) {
	resolver := &fakeResolver{
		course: models.Course{ExternalID: "cs101"},
		roles:  map[uint]models.Role{7: models.RoleStudent},
	}
	app := newGuardedApp(resolver, 7, models.RoleAdmin, models.RoleGrader)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireCourseRoleRejectsNonMembers(t *testing.T) {
	resolver := &fakeResolver{
		course: models.Course{ExternalID: "cs101"},
		roles:  map[uint]models.Role{},
	}
	app := newGuardedApp(resolver, 7, models.RoleAdmin, models.RoleGrader, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireCourseRoleRequiresAuthentication(t *testing.T) {
	resolver := &fakeResolver{course: models.Course{ExternalID: "cs101"}}
	app := newGuardedApp(resolver, 0, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireCourseRoleReturnsNotFoundForUnknownCourse(t *testing.T) {
	resolver := &fakeResolver{
		course: models.Course{ExternalID: "cs101"},
		roles:  map[uint]models.Role{7: models.RoleAdmin},
	}
	app := newGuardedApp(resolver, 7, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/courses/unknown", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRequireCourseRoleReportsLookupFailuresAsServerErrors(t *testing.T) {
	resolver := &fakeResolver{
		course: models.Course{ExternalID: "cs101"},
		err:    errors.New("connection refused"),
		roles:  map[uint]models.Role{7: models.RoleAdmin},
	}
	app := newGuardedApp(resolver, 7, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
