package face_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	. "github.com/WMS-GIETU/WorkshopMS/core/face"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
	emailsvc "github.com/WMS-GIETU/WorkshopMS/services/email"
	logsvc "github.com/WMS-GIETU/WorkshopMS/services/logger"
	inmemdb "github.com/WMS-GIETU/WorkshopMS/storage/database/inmem"
)

var (
	student = user.User{
		ID:       "usr-student",
		Username: "johndoe",
		Email:    "johndoe@test.com",
		Name:     "John Doe",
		RollNo:   "21cs001",
		Roles:    []user.Role{user.RoleStudent},
	}
	sysAdmin = user.User{
		ID:       "usr-admin",
		Username: "sysadmin",
		Roles:    []user.Role{user.RoleAdmin},
	}

	descriptors = [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	emailsvc.ClearSentMessages()
	db := inmemdb.NewDB()
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	return NewService(inmemdb.NewFaceRepository(db), emailsvc.NewConsoleServiceMock(), logger)
}

func TestService_SaveDescriptors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	data, err := svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: descriptors})
	if err != nil {
		t.Fatalf("SaveDescriptors() failed: %v", err)
	}
	if data.UserID != student.ID || data.RollNo != student.RollNo {
		t.Errorf("SaveDescriptors() = %+v", data)
	}
	if len(data.Descriptors) != 2 {
		t.Errorf("SaveDescriptors() kept %d descriptors; want 2", len(data.Descriptors))
	}

	// a second capture replaces the first
	data, err = svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: [][]float64{{0.9}}})
	if err != nil {
		t.Fatalf("SaveDescriptors() failed: %v", err)
	}
	if len(data.Descriptors) != 1 {
		t.Errorf("SaveDescriptors() kept %d descriptors; want 1", len(data.Descriptors))
	}

	all, err := svc.AllData(ctx)
	if err != nil {
		t.Fatalf("AllData() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("AllData() returned %d records; want 1", len(all))
	}
}

func TestService_Status(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	status, err := svc.Status(ctx, student.ID)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if status.HasFaceData || status.RequestStatus != "none" {
		t.Errorf("Status() = %+v; want no data, request status none", status)
	}

	if _, err := svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: descriptors}); err != nil {
		t.Fatalf("SaveDescriptors() failed: %v", err)
	}
	if _, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "Changed glasses"}); err != nil {
		t.Fatalf("RequestUpdate() failed: %v", err)
	}

	status, err = svc.Status(ctx, student.ID)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !status.HasFaceData || status.RequestStatus != string(approval.StatusPending) {
		t.Errorf("Status() = %+v; want data present, request pending", status)
	}
}

func TestService_RequestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	req, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "Changed glasses"})
	if err != nil {
		t.Fatalf("RequestUpdate() failed: %v", err)
	}
	if req.Status != approval.StatusPending || req.Reason != "Changed glasses" {
		t.Errorf("RequestUpdate() = %+v", req)
	}

	// the system admin was notified
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("RequestUpdate() sent %d emails; want 1", len(emailsvc.SentMessages))
	}
	if tmpl := emailsvc.SentMessages[0].TemplateName; tmpl != "face-update-request" {
		t.Errorf("notice email template = %s; want face-update-request", tmpl)
	}

	if _, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "again"}); err != ErrRequestPending {
		t.Errorf("RequestUpdate() err = %v; want %v", err, ErrRequestPending)
	}
}

func TestService_ApprovalFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("approval clears descriptors and opens re-capture", func(t *testing.T) {
		svc := newTestService(t)
		if _, err := svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: descriptors}); err != nil {
			t.Fatalf("SaveDescriptors() failed: %v", err)
		}
		req, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "Changed glasses"})
		if err != nil {
			t.Fatalf("RequestUpdate() failed: %v", err)
		}

		req, err = svc.Approve(ctx, sysAdmin, req.ID)
		if err != nil {
			t.Fatalf("Approve() failed: %v", err)
		}
		if req.Status != approval.StatusApproved || req.DecidedBy != sysAdmin.ID {
			t.Errorf("Approve() = %+v", req)
		}
		if _, err := svc.DataByUser(ctx, student.ID); err != ErrDataNotFound {
			t.Errorf("DataByUser() err = %v; want %v", err, ErrDataNotFound)
		}

		// re-capturing fulfills the request
		if _, err := svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: descriptors}); err != nil {
			t.Fatalf("SaveDescriptors() failed: %v", err)
		}
		status, err := svc.Status(ctx, student.ID)
		if err != nil {
			t.Fatalf("Status() failed: %v", err)
		}
		if status.RequestStatus != string(StatusFulfilled) {
			t.Errorf("Status() request status = %s; want %s", status.RequestStatus, StatusFulfilled)
		}
	})

	t.Run("rejection keeps descriptors", func(t *testing.T) {
		svc := newTestService(t)
		if _, err := svc.SaveDescriptors(ctx, student, NewDescriptors{Descriptors: descriptors}); err != nil {
			t.Fatalf("SaveDescriptors() failed: %v", err)
		}
		req, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "Changed glasses"})
		if err != nil {
			t.Fatalf("RequestUpdate() failed: %v", err)
		}

		req, err = svc.Reject(ctx, sysAdmin, req.ID)
		if err != nil {
			t.Fatalf("Reject() failed: %v", err)
		}
		if req.Status != approval.StatusRejected {
			t.Errorf("Reject() status = %v; want %v", req.Status, approval.StatusRejected)
		}
		if _, err := svc.DataByUser(ctx, student.ID); err != nil {
			t.Errorf("DataByUser() failed: %v; rejection should keep the descriptors", err)
		}
	})

	t.Run("second decision fails", func(t *testing.T) {
		svc := newTestService(t)
		req, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "Changed glasses"})
		if err != nil {
			t.Fatalf("RequestUpdate() failed: %v", err)
		}
		if _, err := svc.Approve(ctx, sysAdmin, req.ID); err != nil {
			t.Fatalf("Approve() failed: %v", err)
		}
		if _, err := svc.Reject(ctx, sysAdmin, req.ID); err != approval.ErrAlreadyProcessed {
			t.Errorf("Reject() err = %v; want %v", err, approval.ErrAlreadyProcessed)
		}
	})
}

func TestUpdateRequest_PendingJSONOmitsDecisionTime(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	req, err := svc.RequestUpdate(ctx, student, NewUpdateRequest{Reason: "New haircut"})
	if err != nil {
		t.Fatalf("RequestUpdate() failed: %v", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if strings.Contains(string(body), "decidedAt") || strings.Contains(string(body), "0001-01-01") {
		t.Errorf("pending request JSON carries a decision timestamp: %s", body)
	}

	if req, err = svc.Approve(ctx, sysAdmin, req.ID); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if body, err = json.Marshal(req); err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !strings.Contains(string(body), "decidedAt") {
		t.Errorf("approved request JSON lacks decidedAt: %s", body)
	}
}
