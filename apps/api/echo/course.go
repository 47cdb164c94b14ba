package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chendurkumaran/eduresource/core/assignment"
	"github.com/chendurkumaran/eduresource/core/course"
	"github.com/chendurkumaran/eduresource/core/enrollment"
)

type courseApi struct {
	svc         course.Service
	assignments assignment.Service
	enrollments enrollment.Service
}

func registerCourseAPI(
	g *echo.Group,
	jwt, optAuth echo.MiddlewareFunc,
	svc course.Service,
	asgSvc assignment.Service,
	enrSvc enrollment.Service,
) {
	api := courseApi{svc: svc, assignments: asgSvc, enrollments: enrSvc}

	cg := g.Group("/courses")

	// catalog endpoints; authentication widens visibility but is not required
	cg.GET("", api.catalog, optAuth)
	cg.GET("/:id", api.retrieve, optAuth)
	cg.GET("/:id/assignments", api.queryAssignments, optAuth)

	// authed endpoints; jwt is applied per route so the catalog
	// siblings above stay reachable without credentials
	cg.POST("", api.create, jwt)
	cg.PUT("/:id", api.update, jwt)
	cg.DELETE("/:id", api.destroy, jwt)

	cg.POST("/:id/modules", api.addModule, jwt)
	cg.PUT("/:id/modules/reorder", api.reorderModules, jwt)
	cg.PUT("/:id/modules/:moduleID", api.updateModule, jwt)
	cg.DELETE("/:id/modules/:moduleID", api.removeModule, jwt)

	// material endpoints address by position; ?module= targets a module's
	// sequence, otherwise the course-level one
	cg.POST("/:id/materials", api.addMaterial, jwt)
	cg.PUT("/:id/materials/:idx", api.updateMaterial, jwt)
	cg.DELETE("/:id/materials/:idx", api.removeMaterial, jwt)

	cg.PUT("/:id/modules/:moduleID/assignments/:assignmentID", api.addAssignmentRef, jwt)
	cg.DELETE("/:id/modules/:moduleID/assignments/:assignmentID", api.removeAssignmentRef, jwt)

	cg.POST("/:id/enroll", api.enroll, jwt)
	cg.DELETE("/:id/enroll", api.drop, jwt)
	cg.GET("/:id/enrollments", api.roster, jwt)
	cg.PUT("/:id/enrollments/:studentID/complete", api.completeEnrollment, jwt)
}

// Handlers

func (api *courseApi) catalog(ctx echo.Context) error {
	var qf course.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	qf.Clean()

	var pg course.Pagination
	if err := ctx.Bind(&pg); err != nil {
		return errors.Wrap(err, "binding to Pagination")
	}
	pg.Clean()

	page, err := api.svc.Catalog(ctx.Request().Context(), getContextActor(ctx), qf, pg)
	if err != nil {
		return errors.Wrap(err, "querying catalog")
	}
	if page.Results == nil {
		page.Results = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryAssignments(ctx echo.Context) error {
	asgs, err := api.assignments.QueryByCourse(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

// Modules

func (api *courseApi) addModule(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.AddModule(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) updateModule(ctx echo.Context) error {
	var data course.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.UpdateModule(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.Param("moduleID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) removeModule(ctx echo.Context) error {
	crs, err := api.svc.RemoveModule(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.Param("moduleID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) reorderModules(ctx echo.Context) error {
	var data ReorderModulesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderModulesRequest")
	}

	crs, err := api.svc.ReorderModules(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), data.ModuleIDs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

// Materials

func (api *courseApi) addMaterial(ctx echo.Context) error {
	var data course.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.AddMaterial(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.QueryParam("module"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) updateMaterial(ctx echo.Context) error {
	idx, err := strconv.Atoi(ctx.Param("idx"))
	if err != nil {
		return errHttpNotFound
	}

	var data course.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.UpdateMaterial(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.QueryParam("module"), idx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) removeMaterial(ctx echo.Context) error {
	idx, err := strconv.Atoi(ctx.Param("idx"))
	if err != nil {
		return errHttpNotFound
	}

	crs, err := api.svc.RemoveMaterial(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.QueryParam("module"), idx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

// Assignment references

func (api *courseApi) addAssignmentRef(ctx echo.Context) error {
	crs, err := api.svc.AddAssignmentRef(
		ctx.Request().Context(), getContextActor(ctx),
		ctx.Param("id"), ctx.Param("moduleID"), ctx.Param("assignmentID"),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) removeAssignmentRef(ctx echo.Context) error {
	crs, err := api.svc.RemoveAssignmentRef(
		ctx.Request().Context(), getContextActor(ctx),
		ctx.Param("id"), ctx.Param("moduleID"), ctx.Param("assignmentID"),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

// Enrollments

func (api *courseApi) enroll(ctx echo.Context) error {
	enr, err := api.enrollments.Enroll(ctx.Request().Context(), getContextActor(ctx), enrollment.NewEnrollment{CourseID: ctx.Param("id")})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) drop(ctx echo.Context) error {
	enr, err := api.enrollments.Drop(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) roster(ctx echo.Context) error {
	activeOnly, _ := strconv.ParseBool(ctx.QueryParam("active"))
	enrs, err := api.enrollments.QueryByCourse(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), activeOnly)
	if err != nil {
		return err
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *courseApi) completeEnrollment(ctx echo.Context) error {
	enr, err := api.enrollments.Complete(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), ctx.Param("studentID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

type ReorderModulesRequest struct {
	ModuleIDs []string `json:"module_ids"`
}
