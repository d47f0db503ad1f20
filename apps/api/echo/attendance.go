package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type attendanceAPI struct {
	service *attendance.Service
	users   *user.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, userSvc *user.Service) {
	api := attendanceAPI{service: svc, users: userSvc}

	ag := g.Group("/attendance", jwt, roleRequired(user.RoleAdmin, user.RoleClubMember))
	ag.POST("/mark", api.mark)
	ag.DELETE("/:workshopId/attendees/:userId", api.remove)
	ag.GET("/:workshopId", api.list)
}

// Handlers

func (api *attendanceAPI) mark(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	data := new(markRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	marks := make([]attendance.Mark, len(data.PresentUserIDs))
	for i, userID := range data.PresentUserIDs {
		marks[i] = attendance.Mark{UserID: userID}
		if usr, err := api.users.GetByID(ctx.Request().Context(), userID); err == nil {
			marks[i].Name = usr.Name
			marks[i].RollNo = usr.RollNo
		}
	}
	if err := api.service.MarkPresent(ctx.Request().Context(), ctxUsr, data.WorkshopID, marks...); err != nil {
		return err
	}
	atts, err := api.service.Attendees(ctx.Request().Context(), data.WorkshopID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, atts)
}

func (api *attendanceAPI) remove(ctx echo.Context) error {
	err := api.service.Remove(ctx.Request().Context(), ctx.Param("workshopId"), ctx.Param("userId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Attendee removed successfully"})
}

func (api *attendanceAPI) list(ctx echo.Context) error {
	atts, err := api.service.Attendees(ctx.Request().Context(), ctx.Param("workshopId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, atts)
}

type markRequest struct {
	WorkshopID     string   `json:"workshopId" validate:"required"`
	PresentUserIDs []string `json:"presentUserIds" validate:"required,min=1,dive,required"`
}

func (r *markRequest) Validate() error {
	r.WorkshopID = core.CleanString(r.WorkshopID)
	return core.Validate.Struct(r)
}
