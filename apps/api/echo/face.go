package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type faceAPI struct {
	service *face.Service
	users   *user.Service
}

func registerFaceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *face.Service, userSvc *user.Service) {
	api := faceAPI{service: svc, users: userSvc}

	fg := g.Group("/face", jwt)
	fg.POST("/save", api.save, roleRequired(user.RoleStudent))
	fg.GET("/status", api.status)
	fg.GET("", api.queryAll, roleRequired(user.RoleAdmin, user.RoleClubMember))
	fg.POST("/request-update", api.requestUpdate, roleRequired(user.RoleStudent))
	fg.GET("/update-requests", api.pendingRequests, roleRequired(user.RoleAdmin))
	fg.PUT("/update-requests/:id/approve", api.approveRequest, roleRequired(user.RoleAdmin))
	fg.PUT("/update-requests/:id/reject", api.rejectRequest, roleRequired(user.RoleAdmin))
}

// Handlers

func (api *faceAPI) save(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	data := new(face.NewDescriptors)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	saved, err := api.service.SaveDescriptors(ctx.Request().Context(), ctxUsr, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, saved)
}

func (api *faceAPI) status(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	status, err := api.service.Status(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *faceAPI) queryAll(ctx echo.Context) error {
	data, err := api.service.AllData(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *faceAPI) requestUpdate(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	data := new(face.NewUpdateRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	req, err := api.service.RequestUpdate(ctx.Request().Context(), ctxUsr, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *faceAPI) pendingRequests(ctx echo.Context) error {
	reqs, err := api.service.PendingRequests(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *faceAPI) approveRequest(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	req, err := api.service.Approve(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *faceAPI) rejectRequest(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	req, err := api.service.Reject(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}
