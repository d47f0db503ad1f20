package registration_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	. "github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	emailsvc "github.com/WMS-GIETU/WorkshopMS/services/email"
	logsvc "github.com/WMS-GIETU/WorkshopMS/services/logger"
	inmemdb "github.com/WMS-GIETU/WorkshopMS/storage/database/inmem"
)

func newTestService(t *testing.T) (*Service, user.Repository) {
	t.Helper()
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewRegistrationRepository(db)
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return NewService(repo, usrRepo, emailsvc.NewConsoleServiceMock(), logger), usrRepo
}

func createClubAdmin(t *testing.T, repo user.Repository, clubCode string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  "admin" + clubCode,
		Email:     "admin@" + clubCode + ".org",
		Roles:     []user.Role{user.RoleAdmin},
		ClubCode:  clubCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("s3cr3t!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func newMemberRequest(clubCode string) NewRequest {
	return NewRequest{
		Username: "johndoe",
		Email:    "johndoe@test.com",
		Password: "s3cr3t!",
		Role:     user.RoleClubMember,
		ClubCode: clubCode,
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("member request without club admin fails", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Submit(ctx, newMemberRequest("sars"))
		if err != ErrNoClubAdmin {
			t.Errorf("Submit() err = %v; want %v", err, ErrNoClubAdmin)
		}
	})

	t.Run("member request notifies club admin", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		admin := createClubAdmin(t, usrRepo, "sars")

		req, err := svc.Submit(ctx, newMemberRequest("sars"))
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if req.Status != approval.StatusPending {
			t.Errorf("Submit() status = %v; want %v", req.Status, approval.StatusPending)
		}
		if req.Type != TypeMember {
			t.Errorf("Submit() type = %v; want %v", req.Type, TypeMember)
		}
		if !req.EmailSent {
			t.Error("Submit() should mark the notice email sent")
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("Submit() sent %d emails; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if msg.To[0].Address != admin.Email {
			t.Errorf("notice email sent to %s; want %s", msg.To[0].Address, admin.Email)
		}
		if msg.TemplateName != "member-request-notice" {
			t.Errorf("notice email template = %s; want member-request-notice", msg.TemplateName)
		}
	})

	t.Run("duplicate pending request rejected", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		createClubAdmin(t, usrRepo, "sars")

		if _, err := svc.Submit(ctx, newMemberRequest("sars")); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if _, err := svc.Submit(ctx, newMemberRequest("sars")); err != ErrRequestPending {
			t.Errorf("Submit() err = %v; want %v", err, ErrRequestPending)
		}
	})

	t.Run("admin request for occupied club rejected", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		createClubAdmin(t, usrRepo, "sars")

		nr := newMemberRequest("sars")
		nr.Role = user.RoleAdmin
		if _, err := svc.Submit(ctx, nr); err != user.ErrAdminExists {
			t.Errorf("Submit() err = %v; want %v", err, user.ErrAdminExists)
		}
	})

	t.Run("admin request goes to the system admin", func(t *testing.T) {
		svc, _ := newTestService(t)

		nr := newMemberRequest("robotics")
		nr.Role = user.RoleAdmin
		req, err := svc.Submit(ctx, nr)
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		if req.Type != TypeAdmin {
			t.Errorf("Submit() type = %v; want %v", req.Type, TypeAdmin)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("Submit() sent %d emails; want 1", len(emailsvc.SentMessages))
		}
		if tmpl := emailsvc.SentMessages[0].TemplateName; tmpl != "admin-request-notice" {
			t.Errorf("notice email template = %s; want admin-request-notice", tmpl)
		}
	})
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("member approval creates the account", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		createClubAdmin(t, usrRepo, "sars")
		req, err := svc.Submit(ctx, newMemberRequest("sars"))
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}

		req, usr, err := svc.Approve(ctx, req.ID, ApproverClubAdmin)
		if err != nil {
			t.Fatalf("Approve() failed: %v", err)
		}
		if req.Status != approval.StatusApproved {
			t.Errorf("Approve() status = %v; want %v", req.Status, approval.StatusApproved)
		}
		if usr.ID == "" {
			t.Error("Approve() should return the created user")
		}
		if !usr.IsClubMember() || usr.ClubCode != "sars" {
			t.Errorf("Approve() user roles = %v, club = %s; want clubMember of sars", usr.Roles, usr.ClubCode)
		}
		if err := usr.CheckPassword("s3cr3t!"); err != nil {
			t.Error("Approve() should carry the password hashed at submission")
		}
	})

	t.Run("second decision fails", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		createClubAdmin(t, usrRepo, "sars")
		req, err := svc.Submit(ctx, newMemberRequest("sars"))
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}

		if _, _, err := svc.Approve(ctx, req.ID, ApproverClubAdmin); err != nil {
			t.Fatalf("Approve() failed: %v", err)
		}
		if _, _, err := svc.Approve(ctx, req.ID, ApproverClubAdmin); err != approval.ErrAlreadyProcessed {
			t.Errorf("Approve() err = %v; want %v", err, approval.ErrAlreadyProcessed)
		}
		if _, err := svc.Reject(ctx, req.ID, ApproverClubAdmin, "nope"); err != approval.ErrAlreadyProcessed {
			t.Errorf("Reject() err = %v; want %v", err, approval.ErrAlreadyProcessed)
		}
	})

	t.Run("authority level is enforced", func(t *testing.T) {
		svc, usrRepo := newTestService(t)
		createClubAdmin(t, usrRepo, "sars")
		req, err := svc.Submit(ctx, newMemberRequest("sars"))
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}

		_, _, err = svc.Approve(ctx, req.ID, ApproverSystemAdmin)
		if _, ok := err.(*core.PermissionError); !ok {
			t.Errorf("Approve() err = %v; want a permission error", err)
		}
	})

	t.Run("admin created after submission blocks approval", func(t *testing.T) {
		svc, usrRepo := newTestService(t)

		nr := newMemberRequest("robotics")
		nr.Role = user.RoleAdmin
		req, err := svc.Submit(ctx, nr)
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}

		// an admin account appears before the request is decided
		createClubAdmin(t, usrRepo, "robotics")

		if _, _, err := svc.Approve(ctx, req.ID, ApproverSystemAdmin); err != user.ErrAdminExists {
			t.Errorf("Approve() err = %v; want %v", err, user.ErrAdminExists)
		}
		req, err = svc.GetByID(ctx, req.ID)
		if err != nil {
			t.Fatalf("GetByID() failed: %v", err)
		}
		if req.Status != approval.StatusPending {
			t.Errorf("failed approval left status %v; want %v", req.Status, approval.StatusPending)
		}
	})
}

func TestService_Reject(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := newTestService(t)
	createClubAdmin(t, usrRepo, "sars")
	req, err := svc.Submit(ctx, newMemberRequest("sars"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	emailsvc.ClearSentMessages()

	req, err = svc.Reject(ctx, req.ID, ApproverClubAdmin, "Roll number could not be verified")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if req.Status != approval.StatusRejected {
		t.Errorf("Reject() status = %v; want %v", req.Status, approval.StatusRejected)
	}
	if req.RejectReason != "Roll number could not be verified" {
		t.Errorf("Reject() reason = %q; want it stored verbatim", req.RejectReason)
	}

	// no account was created
	if _, err := usrRepo.GetUserByUsername(ctx, "johndoe"); err != user.ErrNotFound {
		t.Errorf("GetUserByUsername() err = %v; want %v", err, user.ErrNotFound)
	}

	// the requester was notified
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("Reject() sent %d emails; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != "johndoe@test.com" {
		t.Errorf("result email sent to %s; want johndoe@test.com", msg.To[0].Address)
	}
	if msg.TemplateName != "approval-result" {
		t.Errorf("result email template = %s; want approval-result", msg.TemplateName)
	}
}

func TestService_Pending(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := newTestService(t)
	createClubAdmin(t, usrRepo, "sars")

	if _, err := svc.Submit(ctx, newMemberRequest("sars")); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	adminReq := newMemberRequest("robotics")
	adminReq.Username = "janedoe"
	adminReq.Email = "janedoe@test.com"
	adminReq.Role = user.RoleAdmin
	if _, err := svc.Submit(ctx, adminReq); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	sysPending, err := svc.Pending(ctx, ApproverSystemAdmin, "")
	if err != nil {
		t.Fatalf("Pending() failed: %v", err)
	}
	if len(sysPending) != 1 || sysPending[0].Type != TypeAdmin {
		t.Errorf("Pending(systemAdmin) = %+v; want the single admin request", sysPending)
	}

	clubPending, err := svc.Pending(ctx, ApproverClubAdmin, "sars")
	if err != nil {
		t.Fatalf("Pending() failed: %v", err)
	}
	if len(clubPending) != 1 || clubPending[0].Type != TypeMember {
		t.Errorf("Pending(clubAdmin) = %+v; want the single member request", clubPending)
	}
}

func TestRequest_PendingJSONOmitsDecisionTime(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := newTestService(t)
	createClubAdmin(t, usrRepo, "sars")

	req, err := svc.Submit(ctx, newMemberRequest("sars"))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if strings.Contains(string(body), "approvedAt") {
		t.Errorf("pending request JSON carries approvedAt: %s", body)
	}
	if strings.Contains(string(body), "0001-01-01") {
		t.Errorf("pending request JSON carries a zero timestamp: %s", body)
	}

	req, _, err = svc.Approve(ctx, req.ID, ApproverClubAdmin)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if body, err = json.Marshal(req); err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !strings.Contains(string(body), "approvedAt") {
		t.Errorf("approved request JSON lacks approvedAt: %s", body)
	}
}
