package echoapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
)

type registrationAPI struct {
	service *registration.Service
}

// The registration flow is driven from emailed links, so its endpoints are
// deliberately un-authed: the deciding authority is identified by the
// approverType parameter and the request's own type guards who may decide it.
func registerRegistrationAPI(g *echo.Group, svc *registration.Service) {
	api := registrationAPI{service: svc}

	rg := g.Group("/registration-requests")

	rg.POST("/submit-request", api.submit)
	rg.GET("/pending-requests", api.pending)
	rg.PUT("/approve/:id", api.approve)
	rg.PUT("/reject/:id", api.reject)
	rg.GET("/status/:id", api.status)
}

// Handlers

func (api *registrationAPI) submit(ctx echo.Context) error {
	data := new(registration.NewRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	req, err := api.service.Submit(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": "Registration request submitted successfully. You will be notified once it is reviewed.",
		"request": req,
	})
}

func (api *registrationAPI) pending(ctx echo.Context) error {
	approver, err := parseApprover("approverType", ctx.QueryParam("approverType"))
	if err != nil {
		return err
	}
	reqs, err := api.service.Pending(ctx.Request().Context(), approver, ctx.QueryParam("clubCode"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *registrationAPI) approve(ctx echo.Context) error {
	data := new(approveRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	approver, err := parseApprover("approvedBy", data.ApprovedBy)
	if err != nil {
		return err
	}

	req, usr, err := api.service.Approve(ctx.Request().Context(), ctx.Param("id"), approver)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Request approved and user created",
		"request": req,
		"user":    usr,
	})
}

func (api *registrationAPI) reject(ctx echo.Context) error {
	data := new(rejectRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	approver, err := parseApprover("rejectedBy", data.RejectedBy)
	if err != nil {
		return err
	}

	req, err := api.service.Reject(ctx.Request().Context(), ctx.Param("id"), approver, data.RejectionReason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Request rejected",
		"request": req,
	})
}

func (api *registrationAPI) status(ctx echo.Context) error {
	req, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func parseApprover(field, s string) (registration.Approver, error) {
	switch registration.Approver(s) {
	case registration.ApproverSystemAdmin:
		return registration.ApproverSystemAdmin, nil
	case registration.ApproverClubAdmin:
		return registration.ApproverClubAdmin, nil
	}
	return "", core.NewValidationError(errors.New(field + " must be systemAdmin or clubAdmin"))
}

type (
	approveRequest struct {
		ApprovedBy string `json:"approvedBy"`
	}

	rejectRequest struct {
		RejectedBy      string `json:"rejectedBy"`
		RejectionReason string `json:"rejectionReason"`
	}
)
