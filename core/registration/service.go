package registration

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("Registration request not found")
	ErrRequestPending  = core.NewDuplicateError("A registration request is already pending for this user in this club.")
	ErrAdminUserExists = core.NewDuplicateError("Admin user with this username or email already exists.")
	ErrMemberExists    = core.NewDuplicateError("Club member with this username or email already exists for this club.")
	ErrNoClubAdmin     = core.NewValidationError(errors.New("No admin found for this club. Please contact the system administrator."))

	errSystemAdminOnly = core.NewPermissionError("System admin can only approve admin requests")
	errClubAdminOnly   = core.NewPermissionError("Club admin can only approve member requests")
)

type (
	// Repository persists registration requests. CreateRequest must
	// enforce the one-pending-request-per-identity+club invariant
	// atomically, returning ErrRequestPending on conflict. CommitDecision
	// must persist the terminal transition conditionally on the stored
	// status still being pending, returning approval.ErrAlreadyProcessed
	// otherwise.
	Repository interface {
		CreateRequest(ctx context.Context, req Request) (Request, error)
		GetRequestByID(ctx context.Context, id string) (Request, error)
		FilterPending(ctx context.Context, typ Type, clubCode string) ([]Request, error)
		CommitDecision(ctx context.Context, req Request) (Request, error)
		MarkEmailSent(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo    Repository
		users   user.Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

func NewService(repo Repository, users user.Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, log: log}
}

// Submit validates a new registration request against the current user base,
// persists it pending and notifies the deciding authority. The notification
// is advisory: its failure is recorded but does not fail the submission.
func (svc *Service) Submit(ctx context.Context, nr NewRequest) (Request, error) {
	targetEmail := core.Conf.SystemAdminEmail

	if nr.Role == user.RoleAdmin {
		if _, err := svc.users.GetUserByIdentity(ctx, nr.Username, nr.Email, "", user.RoleAdmin); err == nil {
			return Request{}, ErrAdminUserExists
		}
		if _, err := svc.users.GetAdminByClub(ctx, nr.ClubCode); err == nil {
			return Request{}, user.ErrAdminExists
		}
	} else {
		if _, err := svc.users.GetUserByIdentity(ctx, nr.Username, nr.Email, nr.ClubCode, user.RoleClubMember); err == nil {
			return Request{}, ErrMemberExists
		}
		admin, err := svc.users.GetAdminByClub(ctx, nr.ClubCode)
		if err != nil {
			return Request{}, ErrNoClubAdmin
		}
		targetEmail = admin.Email
	}

	now := time.Now().UTC()
	req := Request{
		Username:    nr.Username,
		Email:       nr.Email,
		Roles:       []user.Role{nr.Role},
		ClubCode:    nr.ClubCode,
		Status:      approval.StatusPending,
		Type:        nr.RequestType(),
		TargetEmail: targetEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	usr := user.User{}
	if err := usr.SetPassword(nr.Password); err != nil {
		return Request{}, errors.Wrap(err, "hashing password")
	}
	req.PasswordHash = usr.PasswordHash

	req, err := svc.repo.CreateRequest(ctx, req)
	if err != nil {
		return Request{}, err
	}

	tmpl := core.TemplateMemberRequestNotice
	subject := "New Club Member Registration Request"
	if req.Type == TypeAdmin {
		tmpl = core.TemplateAdminRequestNotice
		subject = "New Admin Registration Request"
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: targetEmail}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: requestNoticeData(req),
	}
	if _, err := svc.mailSvc.Send(msg); err != nil {
		svc.log.Warn(fmt.Sprintf("registration request %s: notice email: %v", req.ID, err))
		return req, nil
	}
	sentAt := time.Now().UTC()
	if err := svc.repo.MarkEmailSent(ctx, req.ID, sentAt); err != nil {
		svc.log.Warn(fmt.Sprintf("registration request %s: marking email sent: %v", req.ID, err))
	} else {
		req.EmailSent = true
		req.EmailSentAt = &sentAt
	}
	return req, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Request, error) {
	return svc.repo.GetRequestByID(ctx, id)
}

// Pending lists the requests awaiting the given authority: the system admin
// sees all admin requests, a club admin sees member requests for their club.
func (svc *Service) Pending(ctx context.Context, approver Approver, clubCode string) ([]Request, error) {
	if approver == ApproverSystemAdmin {
		return svc.repo.FilterPending(ctx, TypeAdmin, "")
	}
	return svc.repo.FilterPending(ctx, TypeMember, core.CleanString(clubCode, true /* lower */))
}

// Approve transitions the request to approved and creates (or augments) the
// user account. The account creation happens before the transition commits;
// a failure there leaves the request pending. The result notification is
// advisory.
func (svc *Service) Approve(ctx context.Context, id string, approver Approver) (Request, user.User, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, user.User{}, err
	}
	now := time.Now().UTC()
	req.ApprovedBy = string(approver)
	req.ApprovedAt = &now

	var usr user.User
	req, err = svc.workflow(approver, &usr).Approve(ctx, req)
	if err != nil {
		return Request{}, user.User{}, err
	}
	return req, usr, nil
}

// Reject transitions the request to rejected, storing the reason verbatim.
func (svc *Service) Reject(ctx context.Context, id string, rejectedBy Approver, reason string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	now := time.Now().UTC()
	req.ApprovedBy = string(rejectedBy)
	req.ApprovedAt = &now
	req.RejectReason = reason

	return svc.workflow(rejectedBy, nil).Reject(ctx, req)
}

func (svc *Service) workflow(approver Approver, out *user.User) approval.Workflow[Request] {
	return approval.Workflow[Request]{
		Status: func(req Request) approval.Status { return req.Status },
		Authorize: func(_ context.Context, req Request) error {
			switch approver {
			case ApproverSystemAdmin:
				if req.Type != TypeAdmin {
					return errSystemAdminOnly
				}
			case ApproverClubAdmin:
				if req.Type != TypeMember {
					return errClubAdminOnly
				}
			}
			return nil
		},
		Effect: func(ctx context.Context, req *Request) error {
			usr, err := svc.createOrAugmentUser(ctx, *req)
			if err != nil {
				return err
			}
			if out != nil {
				*out = usr
			}
			return nil
		},
		Commit: func(ctx context.Context, req Request, outcome approval.Status) (Request, error) {
			req.Status = outcome
			req.UpdatedAt = time.Now().UTC()
			return svc.repo.CommitDecision(ctx, req)
		},
		Notify: func(req Request, outcome approval.Status) {
			svc.notifyResult(req, outcome == approval.StatusApproved)
		},
	}
}

// createOrAugmentUser re-verifies the one-admin-per-club invariant (the
// request may have been racing an account created after submission), then
// creates the account or merges the requested roles into an existing one.
func (svc *Service) createOrAugmentUser(ctx context.Context, req Request) (user.User, error) {
	isAdminReq := user.HasRole(req.Roles, user.RoleAdmin)

	if isAdminReq {
		if _, err := svc.users.GetAdminByClub(ctx, req.ClubCode); err == nil {
			return user.User{}, user.ErrAdminExists
		}
	}

	scopeClub, scopeRole := req.ClubCode, user.RoleClubMember
	if isAdminReq {
		scopeClub, scopeRole = "", user.RoleAdmin
	}
	if existing, err := svc.users.GetUserByIdentity(ctx, req.Username, req.Email, scopeClub, scopeRole); err == nil {
		return svc.users.AddUserRoles(ctx, existing.ID, req.Roles...)
	}

	now := time.Now().UTC()
	return svc.users.CreateUser(ctx, user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: req.PasswordHash, // already hashed at submission
		Roles:        req.Roles,
		ClubCode:     req.ClubCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) notifyResult(req Request, approved bool) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: req.Email}},
		Subject:      fmt.Sprintf("Registration Request %s", resultWord(approved)),
		TemplateName: core.TemplateApprovalResult,
		TemplateData: map[string]interface{}{
			"Username":        req.Username,
			"Role":            string(req.Roles[0]),
			"ClubCode":        req.ClubCode,
			"Approved":        approved,
			"RejectionReason": req.RejectReason,
		},
	}
	if _, err := svc.mailSvc.Send(msg); err != nil {
		svc.log.Warn(fmt.Sprintf("registration request %s: result email: %v", req.ID, err))
	}
}

func requestNoticeData(req Request) map[string]interface{} {
	return map[string]interface{}{
		"RequestID": req.ID,
		"Username":  req.Username,
		"Email":     req.Email,
		"ClubCode":  req.ClubCode,
		"CreatedAt": req.CreatedAt.Format(time.RFC1123),
	}
}

func resultWord(approved bool) string {
	if approved {
		return "Approved"
	}
	return "Rejected"
}
