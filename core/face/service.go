package face

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

var (
	// errors
	ErrDataNotFound    = core.NewNotFoundError("Face data not found")
	ErrRequestNotFound = core.NewNotFoundError("Face update request not found")
	ErrRequestPending  = core.NewDuplicateError("A face data update request is already pending for this user.")
)

type (
	// Repository persists face data and update requests. CreateRequest must
	// enforce one-pending-request-per-user atomically, returning
	// ErrRequestPending on conflict. CommitDecision must persist the
	// terminal transition conditionally on the stored status still being
	// pending, returning approval.ErrAlreadyProcessed otherwise.
	// MarkFulfilled transitions approved -> fulfilled and is a no-op on any
	// other status.
	Repository interface {
		SaveData(ctx context.Context, data Data) (Data, error)
		GetDataByUser(ctx context.Context, userID string) (Data, error)
		QueryAllData(ctx context.Context) ([]Data, error)
		DeleteData(ctx context.Context, userID string) error

		CreateRequest(ctx context.Context, req UpdateRequest) (UpdateRequest, error)
		GetRequestByID(ctx context.Context, id string) (UpdateRequest, error)
		FilterPendingRequests(ctx context.Context) ([]UpdateRequest, error)
		LatestRequestByUser(ctx context.Context, userID string) (UpdateRequest, error)
		CommitDecision(ctx context.Context, req UpdateRequest) (UpdateRequest, error)
		MarkFulfilled(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, log: log}
}

// SaveDescriptors stores a student's captured descriptors, replacing any
// previous set. If the student has an approved update request it is marked
// fulfilled, closing the re-capture window.
func (svc *Service) SaveDescriptors(ctx context.Context, actor user.User, nd NewDescriptors) (Data, error) {
	data, err := svc.repo.SaveData(ctx, Data{
		UserID:      actor.ID,
		Name:        actor.Name,
		RollNo:      actor.RollNo,
		Descriptors: nd.Descriptors,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Data{}, err
	}

	req, err := svc.repo.LatestRequestByUser(ctx, actor.ID)
	if err == nil && req.Status == approval.StatusApproved {
		if err := svc.repo.MarkFulfilled(ctx, req.ID); err != nil {
			svc.log.Warn(fmt.Sprintf("face update request %s: marking fulfilled: %v", req.ID, err))
		}
	}
	return data, nil
}

func (svc *Service) DataByUser(ctx context.Context, userID string) (Data, error) {
	return svc.repo.GetDataByUser(ctx, userID)
}

// AllData returns every student's descriptors, for client-side matching.
func (svc *Service) AllData(ctx context.Context) ([]Data, error) {
	return svc.repo.QueryAllData(ctx)
}

func (svc *Service) DeleteData(ctx context.Context, userID string) error {
	return svc.repo.DeleteData(ctx, userID)
}

// Status summarizes a student's face data state for the capture UI.
func (svc *Service) Status(ctx context.Context, userID string) (DataStatus, error) {
	var status DataStatus
	if _, err := svc.repo.GetDataByUser(ctx, userID); err == nil {
		status.HasFaceData = true
	} else if _, ok := err.(*core.NotFoundError); !ok {
		return DataStatus{}, err
	}

	req, err := svc.repo.LatestRequestByUser(ctx, userID)
	if err != nil {
		if _, ok := err.(*core.NotFoundError); ok {
			status.RequestStatus = "none"
			return status, nil
		}
		return DataStatus{}, err
	}
	status.RequestStatus = string(req.Status)
	return status, nil
}

// RequestUpdate files a re-capture request and notifies the system admin.
// The notification is advisory: its failure does not fail the submission.
func (svc *Service) RequestUpdate(ctx context.Context, actor user.User, nr NewUpdateRequest) (UpdateRequest, error) {
	now := time.Now().UTC()
	req, err := svc.repo.CreateRequest(ctx, UpdateRequest{
		UserID:    actor.ID,
		Name:      actor.Name,
		Email:     actor.Email,
		RollNo:    actor.RollNo,
		Reason:    nr.Reason,
		Status:    approval.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return UpdateRequest{}, err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: core.Conf.SystemAdminEmail}},
		Subject:      "Face Data Update Request",
		TemplateName: core.TemplateFaceUpdateRequest,
		TemplateData: map[string]interface{}{
			"RequestID": req.ID,
			"Name":      req.Name,
			"Email":     req.Email,
			"RollNo":    req.RollNo,
			"Reason":    req.Reason,
			"CreatedAt": req.CreatedAt.Format(time.RFC1123),
		},
	}
	if _, err := svc.mailSvc.Send(msg); err != nil {
		svc.log.Warn(fmt.Sprintf("face update request %s: notice email: %v", req.ID, err))
	}
	return req, nil
}

func (svc *Service) PendingRequests(ctx context.Context) ([]UpdateRequest, error) {
	return svc.repo.FilterPendingRequests(ctx)
}

// Approve opens the student's re-capture window. Approval also clears the
// stored descriptors so the next capture starts fresh.
func (svc *Service) Approve(ctx context.Context, actor user.User, id string) (UpdateRequest, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return UpdateRequest{}, err
	}
	now := time.Now().UTC()
	req.DecidedBy = actor.ID
	req.DecidedAt = &now
	return svc.workflow().Approve(ctx, req)
}

// Reject closes the request without opening a re-capture window.
func (svc *Service) Reject(ctx context.Context, actor user.User, id string) (UpdateRequest, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return UpdateRequest{}, err
	}
	now := time.Now().UTC()
	req.DecidedBy = actor.ID
	req.DecidedAt = &now
	return svc.workflow().Reject(ctx, req)
}

func (svc *Service) workflow() approval.Workflow[UpdateRequest] {
	return approval.Workflow[UpdateRequest]{
		Status: func(req UpdateRequest) approval.Status { return req.Status },
		Effect: func(ctx context.Context, req *UpdateRequest) error {
			err := svc.repo.DeleteData(ctx, req.UserID)
			if _, ok := err.(*core.NotFoundError); err != nil && !ok {
				return err
			}
			return nil
		},
		Commit: func(ctx context.Context, req UpdateRequest, outcome approval.Status) (UpdateRequest, error) {
			req.Status = outcome
			req.UpdatedAt = time.Now().UTC()
			return svc.repo.CommitDecision(ctx, req)
		},
		Notify: func(req UpdateRequest, outcome approval.Status) {
			svc.notifyResult(req, outcome == approval.StatusApproved)
		},
	}
}

func (svc *Service) notifyResult(req UpdateRequest, approved bool) {
	word := "Rejected"
	if approved {
		word = "Approved"
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: req.Email}},
		Subject:      "Face Data Update Request " + word,
		TemplateName: core.TemplateFaceUpdateResult,
		TemplateData: map[string]interface{}{
			"Name":     req.Name,
			"Approved": approved,
		},
	}
	if _, err := svc.mailSvc.Send(msg); err != nil {
		svc.log.Warn(fmt.Sprintf("face update request %s: result email: %v", req.ID, err))
	}
}
