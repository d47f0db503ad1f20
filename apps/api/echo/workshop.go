package echoapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

type workshopAPI struct {
	service    *workshop.Service
	attendance *attendance.Service
	users      *user.Service
}

func registerWorkshopAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *workshop.Service, attSvc *attendance.Service, userSvc *user.Service) {
	api := workshopAPI{service: svc, attendance: attSvc, users: userSvc}

	// workshop requests
	rg := g.Group("/workshop-requests", jwt)
	rg.POST("/submit", api.submitRequest, roleRequired(user.RoleClubMember))
	rg.GET("/requests", api.queryRequests)
	rg.GET("/stats", api.requestStats)
	rg.PUT("/approve/:id", api.approveRequest, roleRequired(user.RoleAdmin))
	rg.PUT("/reject/:id", api.rejectRequest, roleRequired(user.RoleAdmin))

	// workshops
	wg := g.Group("/workshops")
	wg.GET("/public", api.queryPublic)
	ag := wg.Group("", jwt)
	ag.POST("/create", api.create, roleRequired(user.RoleAdmin))
	ag.GET("", api.queryClub)
	ag.GET("/stats", api.clubStats, roleRequired(user.RoleAdmin))
	ag.GET("/images/:id", api.image)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, roleRequired(user.RoleAdmin))
	ag.DELETE("/:id", api.destroy, roleRequired(user.RoleAdmin))
	ag.GET("/:id/participants", api.participants)

	// student signups
	sg := g.Group("/workshop-registrations", jwt)
	sg.POST("/register", api.register)
	sg.GET("/workshop/:id", api.registrationsByWorkshop)
	sg.GET("/user/:id", api.registrationsByUser)
}

// Handlers

func (api *workshopAPI) submitRequest(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	data := &workshop.NewRequest{
		WorkshopName:    ctx.FormValue("workshopName"),
		Date:            ctx.FormValue("date"),
		Time:            ctx.FormValue("time"),
		Location:        ctx.FormValue("location"),
		Topic:           ctx.FormValue("topic"),
		Description:     ctx.FormValue("description"),
		MaxParticipants: atoiDefault(ctx.FormValue("maxParticipants")),
	}
	if err := data.Validate(); err != nil {
		return err
	}
	img, err := readImageUpload(ctx)
	if err != nil {
		return err
	}

	req, err := api.service.SubmitRequest(ctx.Request().Context(), ctxUsr, *data, img)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *workshopAPI) queryRequests(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	reqs, err := api.service.Requests(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *workshopAPI) requestStats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	stats, err := api.service.Stats(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *workshopAPI) approveRequest(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	data := new(decisionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	req, err := api.service.ApproveRequest(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.AdminResponse)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *workshopAPI) rejectRequest(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	data := new(decisionRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	req, err := api.service.RejectRequest(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.AdminResponse)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *workshopAPI) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}

	data := &workshop.NewWorkshop{
		Name:            ctx.FormValue("name"),
		Date:            ctx.FormValue("date"),
		Time:            ctx.FormValue("time"),
		Location:        ctx.FormValue("location"),
		Topic:           ctx.FormValue("topic"),
		Description:     ctx.FormValue("description"),
		Link:            ctx.FormValue("link"),
		MaxParticipants: atoiDefault(ctx.FormValue("maxParticipants")),
		ClubCode:        ctx.FormValue("clubCode"),
	}
	if data.ClubCode == "" {
		data.ClubCode = ctxUsr.ClubCode
	}
	if err := data.Validate(); err != nil {
		return err
	}
	img, err := readImageUpload(ctx)
	if err != nil {
		return err
	}

	ws, err := api.service.Create(ctx.Request().Context(), ctxUsr, *data, img)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ws)
}

func (api *workshopAPI) queryPublic(ctx echo.Context) error {
	wss, err := api.service.ListAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wss)
}

func (api *workshopAPI) queryClub(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	wss, err := api.service.ListByClub(ctx.Request().Context(), ctxUsr.ClubCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wss)
}

func (api *workshopAPI) clubStats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	stats, err := api.service.ClubStats(ctx.Request().Context(), ctxUsr.ClubCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *workshopAPI) retrieve(ctx echo.Context) error {
	ws, err := api.service.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ws)
}

func (api *workshopAPI) image(ctx echo.Context) error {
	img, err := api.service.GetImage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, img.ContentType, img.Data)
}

func (api *workshopAPI) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	data := new(workshop.UpdateWorkshop)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	ws, err := api.service.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ws)
}

func (api *workshopAPI) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	if err := api.service.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// participants reads the workshop's attendance ledger.
func (api *workshopAPI) participants(ctx echo.Context) error {
	if _, err := api.service.Get(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	atts, err := api.attendance.Attendees(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *workshopAPI) register(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return err
	}
	data := new(registerRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reg, err := api.service.Register(ctx.Request().Context(), ctxUsr.ID, data.WorkshopID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *workshopAPI) registrationsByWorkshop(ctx echo.Context) error {
	regs, err := api.service.RegistrationsByWorkshop(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *workshopAPI) registrationsByUser(ctx echo.Context) error {
	regs, err := api.service.RegistrationsByUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, regs)
}

// readImageUpload pulls the optional "image" multipart part into memory.
func readImageUpload(ctx echo.Context) (*workshop.ImageUpload, error) {
	fh, err := ctx.FormFile("image")
	if err != nil {
		return nil, nil // no image attached
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	up := &workshop.ImageUpload{Data: data, ContentType: ct, Filename: fh.Filename}
	if err := up.Validate(); err != nil {
		return nil, err
	}
	return up, nil
}

func atoiDefault(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

type (
	decisionRequest struct {
		AdminResponse string `json:"adminResponse"`
	}

	registerRequest struct {
		WorkshopID string `json:"workshopId" validate:"required"`
	}
)

func (r *registerRequest) Validate() error {
	r.WorkshopID = core.CleanString(r.WorkshopID)
	return core.Validate.Struct(r)
}
