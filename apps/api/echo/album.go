package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/album"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type albumAPI struct {
	service *album.Service
	users   *user.Service
}

func registerAlbumAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *album.Service, userSvc *user.Service) {
	api := albumAPI{service: svc, users: userSvc}

	wg := g.Group("/album")
	wg.GET("/public", api.queryPublic)
	ag := wg.Group("", jwt)
	ag.POST("/upload", api.upload, roleRequired(user.RoleAdmin, user.RoleClubMember))
	ag.GET("", api.queryClub)
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy, roleRequired(user.RoleAdmin))
}

// Handlers

func (api *albumAPI) upload(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	up, err := readImageUpload(ctx)
	if err != nil {
		return err
	}
	if up == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "image", Error: "image is required"})
	}

	img, err := api.service.Upload(ctx.Request().Context(), ctxUsr, *up, ctx.FormValue("caption"), ctx.FormValue("workshop"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, img)
}

func (api *albumAPI) queryClub(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	clubCode := ctx.QueryParam("clubCode")
	if clubCode == "" {
		clubCode = ctxUsr.ClubCode
	}
	imgs, err := api.service.ListByClub(ctx.Request().Context(), clubCode, ctx.QueryParam("workshop"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, imgs)
}

func (api *albumAPI) queryPublic(ctx echo.Context) error {
	imgs, err := api.service.ListPublic(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, imgs)
}

func (api *albumAPI) retrieve(ctx echo.Context) error {
	img, err := api.service.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, img.ContentType, img.Data)
}

func (api *albumAPI) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	if err := api.service.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
