package echoapi

import (
	"net/http"
	"testing"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

func submitRegistration(t *testing.T, env *testEnv, nr registration.NewRequest) registration.Request {
	t.Helper()
	rec := env.do(newRequest(http.MethodPost, "/api/registration-requests/submit-request", marshallObj(t, nr)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit code = %d; want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var res struct {
		Message string               `json:"message"`
		Request registration.Request `json:"request"`
	}
	decodeBody(t, rec, &res)
	if res.Request.ID == "" || res.Request.Status != approval.StatusPending {
		t.Fatalf("submit response = %+v", res)
	}
	return res.Request
}

func TestRegistrationAPI_Submit(t *testing.T) {
	env := setup(t)
	env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")

	nr := registration.NewRequest{
		Username: "johndoe",
		Email:    "johndoe@test.com",
		Password: "passw0rd",
		Role:     user.RoleClubMember,
		ClubCode: "sars",
	}
	submitRegistration(t, env, nr)

	t.Run("duplicate pending", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodPost, "/api/registration-requests/submit-request", marshallObj(t, nr)))
		checkError(t, rec, http.StatusBadRequest,
			httpErr{Error: "A registration request is already pending for this user in this club."})
	})

	t.Run("member request without club admin", func(t *testing.T) {
		bad := nr
		bad.Username = "janedoe"
		bad.Email = "janedoe@test.com"
		bad.ClubCode = "ghostclub"
		rec := env.do(newRequest(http.MethodPost, "/api/registration-requests/submit-request", marshallObj(t, bad)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		bad := nr
		bad.Role = "superuser"
		rec := env.do(newRequest(http.MethodPost, "/api/registration-requests/submit-request", marshallObj(t, bad)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestRegistrationAPI_Decisions(t *testing.T) {
	env := setup(t)
	env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")

	req := submitRegistration(t, env, registration.NewRequest{
		Username: "johndoe",
		Email:    "johndoe@test.com",
		Password: "passw0rd",
		Role:     user.RoleClubMember,
		ClubCode: "sars",
	})

	t.Run("pending list by approver", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodGet, "/api/registration-requests/pending-requests?approverType=clubAdmin&clubCode=sars"))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
		}
		var reqs []registration.Request
		decodeBody(t, rec, &reqs)
		if len(reqs) != 1 || reqs[0].ID != req.ID {
			t.Errorf("pending = %+v; want the submitted request", reqs)
		}

		// the system admin sees no member requests
		rec = env.do(newRequest(http.MethodGet, "/api/registration-requests/pending-requests?approverType=systemAdmin"))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
		}
		decodeBody(t, rec, &reqs)
		if len(reqs) != 0 {
			t.Errorf("pending(systemAdmin) = %+v; want none", reqs)
		}
	})

	t.Run("invalid approver", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodPut, "/api/registration-requests/approve/"+req.ID,
			marshallObj(t, map[string]string{"approvedBy": "superAdmin"})))
		checkError(t, rec, http.StatusBadRequest, httpErr{Error: "approvedBy must be systemAdmin or clubAdmin"})
	})

	t.Run("approve creates the user", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodPut, "/api/registration-requests/approve/"+req.ID,
			marshallObj(t, map[string]string{"approvedBy": "clubAdmin"})))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res struct {
			Message string               `json:"message"`
			Request registration.Request `json:"request"`
			User    user.User            `json:"user"`
		}
		decodeBody(t, rec, &res)
		if res.Message != "Request approved and user created" {
			t.Errorf("message = %q", res.Message)
		}
		if res.Request.Status != approval.StatusApproved {
			t.Errorf("status = %v; want %v", res.Request.Status, approval.StatusApproved)
		}
		if res.User.Username != "johndoe" || !user.HasRole(res.User.Roles, user.RoleClubMember) {
			t.Errorf("user = %+v", res.User)
		}
	})

	t.Run("second decision fails", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodPut, "/api/registration-requests/approve/"+req.ID,
			marshallObj(t, map[string]string{"approvedBy": "clubAdmin"})))
		checkError(t, rec, http.StatusBadRequest, httpErr{Error: "Request has already been processed"})
	})

	t.Run("status endpoint", func(t *testing.T) {
		rec := env.do(newRequest(http.MethodGet, "/api/registration-requests/status/"+req.ID))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d", rec.Code, http.StatusOK)
		}
		var got registration.Request
		decodeBody(t, rec, &got)
		if got.Status != approval.StatusApproved {
			t.Errorf("status = %v; want %v", got.Status, approval.StatusApproved)
		}
	})
}

func TestRegistrationAPI_Reject(t *testing.T) {
	env := setup(t)
	env.createUser(t, "sarsadmin", []user.Role{user.RoleAdmin}, "sars")
	req := submitRegistration(t, env, registration.NewRequest{
		Username: "johndoe",
		Email:    "johndoe@test.com",
		Password: "passw0rd",
		Role:     user.RoleClubMember,
		ClubCode: "sars",
	})

	rec := env.do(newRequest(http.MethodPut, "/api/registration-requests/reject/"+req.ID,
		marshallObj(t, map[string]string{"rejectedBy": "clubAdmin", "rejectionReason": "Unknown roll number"})))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res struct {
		Message string               `json:"message"`
		Request registration.Request `json:"request"`
	}
	decodeBody(t, rec, &res)
	if res.Message != "Request rejected" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Request.Status != approval.StatusRejected || res.Request.RejectReason != "Unknown roll number" {
		t.Errorf("request = %+v", res.Request)
	}
}
