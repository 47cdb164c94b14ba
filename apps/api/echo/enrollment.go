package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chendurkumaran/eduresource/core/enrollment"
)

type enrollmentApi struct {
	svc enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc enrollment.Service) {
	api := enrollmentApi{svc: svc}

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.queryOwn)
}

// queryOwn lists the caller's enrollments; admins may pass ?student= to
// inspect another student's.
func (api *enrollmentApi) queryOwn(ctx echo.Context) error {
	actor := getContextActor(ctx)
	studentID := ctx.QueryParam("student")
	if studentID == "" {
		studentID = actor.ID
	}

	enrs, err := api.svc.QueryByStudent(ctx.Request().Context(), actor, studentID)
	if err != nil {
		return err
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}
