package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type authAPI struct {
	service *user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service) {
	api := authAPI{service: svc}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.GET("/check-admin/:clubCode", api.checkAdmin)
	ag.POST("/student/send-otp", api.studentSendOTP)
	ag.POST("/student/register", api.studentRegister)

	// authed endpoints
	ug := ag.Group("/users", jwt)
	ug.GET("", api.queryClubUsers, roleRequired(user.RoleAdmin, user.RoleClubMember))
	ug.PUT("/:id", api.update, roleRequired(user.RoleAdmin))
	ug.DELETE("/:id", api.destroy, roleRequired(user.RoleAdmin))
}

// Handlers

func (api *authAPI) login(ctx echo.Context) error {
	data := new(user.Credentials)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.service.Authenticate(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	token, err := generateToken(getUserClaims(usr))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, loginResponse{Token: token, User: usr})
}

func (api *authAPI) checkAdmin(ctx echo.Context) error {
	admin, exists, err := api.service.ClubAdmin(ctx.Request().Context(), ctx.Param("clubCode"))
	if err != nil {
		return err
	}
	res := checkAdminResponse{Exists: exists}
	if exists {
		res.Admin = &admin
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *authAPI) studentSendOTP(ctx echo.Context) error {
	data := new(sendOTPRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.service.SendStudentOTP(ctx.Request().Context(), data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "OTP sent successfully"})
}

func (api *authAPI) studentRegister(ctx echo.Context) error {
	data := new(user.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.service.RegisterStudent(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	token, err := generateToken(getUserClaims(usr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, loginResponse{Token: token, User: usr})
}

func (api *authAPI) queryClubUsers(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.service)
	if err != nil {
		return err
	}
	users, err := api.service.ListClubUsers(ctx.Request().Context(), ctxUsr.ClubCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *authAPI) update(ctx echo.Context) error {
	usr, err := api.clubScopedUser(ctx)
	if err != nil {
		return err
	}

	data := new(user.UpdateUser)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err = api.service.Update(ctx.Request().Context(), usr.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authAPI) destroy(ctx echo.Context) error {
	usr, err := api.clubScopedUser(ctx)
	if err != nil {
		return err
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.service)
	if err != nil {
		return err
	}
	if usr.ID == ctxUsr.ID {
		return errHTTPForbidden
	}

	if err := api.service.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// clubScopedUser loads the target user, hidden behind a 404 when it belongs
// to another club.
func (api *authAPI) clubScopedUser(ctx echo.Context) (user.User, error) {
	ctxUsr, err := getContextUser(ctx, api.service)
	if err != nil {
		return user.User{}, err
	}
	usr, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return user.User{}, err
	}
	if usr.ClubCode != ctxUsr.ClubCode {
		return user.User{}, errHTTPNotFound
	}
	return usr, nil
}

type (
	loginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	checkAdminResponse struct {
		Exists bool       `json:"exists"`
		Admin  *user.User `json:"admin,omitempty"`
	}

	sendOTPRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (r *sendOTPRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}
