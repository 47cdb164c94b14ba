package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chendurkumaran/eduresource/core/assignment"
	"github.com/chendurkumaran/eduresource/core/submission"
)

type assignmentApi struct {
	svc         assignment.Service
	submissions submission.Service
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt, optAuth echo.MiddlewareFunc,
	svc assignment.Service,
	subSvc submission.Service,
) {
	api := assignmentApi{svc: svc, submissions: subSvc}

	ag := g.Group("/assignments")

	// free courses expose assignments without authentication
	ag.GET("/:id", api.retrieve, optAuth)

	// authed endpoints; jwt per route so the unauthenticated
	// retrieve above is never shadowed by a group catch-all
	ag.POST("", api.create, jwt)
	ag.PUT("/:id", api.update, jwt)
	ag.DELETE("/:id", api.destroy, jwt)
	ag.POST("/:id/publish", api.publish, jwt)

	ag.POST("/:id/submissions", api.createSubmission, jwt)
	ag.GET("/:id/submissions", api.querySubmissions, jwt)
	ag.GET("/:id/submissions/mine", api.retrieveOwnSubmission, jwt)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.Get(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) publish(ctx echo.Context) error {
	asg, err := api.svc.Publish(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

// Submissions

func (api *assignmentApi) createSubmission(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.AssignmentID = ctx.Param("id")
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.submissions.Create(ctx.Request().Context(), getContextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.submissions.QueryByAssignment(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) retrieveOwnSubmission(ctx echo.Context) error {
	sub, err := api.submissions.GetOwn(ctx.Request().Context(), getContextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
