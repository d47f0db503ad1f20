package workshop

import (
	"context"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("Workshop not found")
	ErrRequestNotFound   = core.NewNotFoundError("Workshop request not found")
	ErrImageNotFound     = core.NewNotFoundError("Image not found")
	ErrAlreadyRegistered = core.NewDuplicateError("You are already registered for this workshop")

	errMembersOnly  = core.NewPermissionError("Only club members can submit workshop requests")
	errClubMismatch = core.NewPermissionError("You can only manage workshops and requests for your own club")
)

type (
	// Repository persists workshops and their image blobs.
	Repository interface {
		CreateWorkshop(ctx context.Context, ws Workshop) (Workshop, error)
		GetWorkshopByID(ctx context.Context, id string) (Workshop, error)
		QueryAllWorkshops(ctx context.Context) ([]Workshop, error)
		FilterWorkshopsByClub(ctx context.Context, clubCode string) ([]Workshop, error)
		UpdateWorkshop(ctx context.Context, ws Workshop) (Workshop, error)
		DeleteWorkshop(ctx context.Context, id string) error
		CountWorkshopsByClub(ctx context.Context, clubCode string) (int, error)

		CreateImage(ctx context.Context, img Image) (Image, error)
		GetImageByID(ctx context.Context, id string) (Image, error)
		LinkImageWorkshop(ctx context.Context, imageID, workshopID string) error
		DeleteImage(ctx context.Context, id string) error
	}

	// RequestRepository persists workshop requests. CommitDecision must
	// persist the terminal transition conditionally on the stored status
	// still being pending, returning approval.ErrAlreadyProcessed otherwise.
	RequestRepository interface {
		CreateRequest(ctx context.Context, req Request) (Request, error)
		GetRequestByID(ctx context.Context, id string) (Request, error)
		FilterRequestsByClub(ctx context.Context, clubCode string) ([]Request, error)
		FilterRequestsByRequester(ctx context.Context, requesterID string) ([]Request, error)
		CommitDecision(ctx context.Context, req Request) (Request, error)
		CountRequests(ctx context.Context, clubCode, requesterID string, status approval.Status) (int, error)
	}

	// RegistrationRepository persists student signups. CreateRegistration
	// must enforce one-signup-per-student-per-workshop atomically, returning
	// ErrAlreadyRegistered on conflict.
	RegistrationRepository interface {
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		FilterRegistrationsByWorkshop(ctx context.Context, workshopID string) ([]Registration, error)
		FilterRegistrationsByUser(ctx context.Context, userID string) ([]Registration, error)
		CountRegistrationsByClub(ctx context.Context, clubCode string) (int, error)
	}

	Service struct {
		repo Repository
		reqs RequestRepository
		regs RegistrationRepository
		log  core.Logger
	}
)

func NewService(repo Repository, reqs RequestRepository, regs RegistrationRepository, log core.Logger) *Service {
	return &Service{repo: repo, reqs: reqs, regs: regs, log: log}
}

// Create makes a workshop directly, bypassing the request flow. The actor
// must belong to the workshop's club.
func (svc *Service) Create(ctx context.Context, actor user.User, nw NewWorkshop, img *ImageUpload) (Workshop, error) {
	if nw.ClubCode != actor.ClubCode {
		return Workshop{}, errClubMismatch
	}

	now := time.Now().UTC()
	ws := Workshop{
		Name:            nw.Name,
		Date:            nw.Date,
		Time:            nw.Time,
		Location:        nw.Location,
		Topic:           nw.Topic,
		Description:     nw.Description,
		Link:            nw.Link,
		MaxParticipants: nw.MaxParticipants,
		ClubCode:        nw.ClubCode,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if img != nil {
		stored, err := svc.repo.CreateImage(ctx, Image{
			Data:        img.Data,
			ContentType: img.ContentType,
			UploadedBy:  actor.ID,
			ClubCode:    nw.ClubCode,
			CreatedAt:   now,
		})
		if err != nil {
			return Workshop{}, err
		}
		ws.ImageID = stored.ID
	}
	ws, err := svc.repo.CreateWorkshop(ctx, ws)
	if err != nil {
		return Workshop{}, err
	}
	if ws.ImageID != "" {
		if err := svc.repo.LinkImageWorkshop(ctx, ws.ImageID, ws.ID); err != nil {
			svc.log.Warn("linking image to workshop " + ws.ID + ": " + err.Error())
		}
	}
	return ws, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Workshop, error) {
	return svc.repo.GetWorkshopByID(ctx, id)
}

// ListAll returns every workshop across clubs, for the public listing.
func (svc *Service) ListAll(ctx context.Context) ([]Workshop, error) {
	return svc.repo.QueryAllWorkshops(ctx)
}

func (svc *Service) ListByClub(ctx context.Context, clubCode string) ([]Workshop, error) {
	return svc.repo.FilterWorkshopsByClub(ctx, core.CleanString(clubCode, true /* lower */))
}

// Update edits a workshop. The actor must belong to the workshop's club.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, uw UpdateWorkshop) (Workshop, error) {
	ws, err := svc.repo.GetWorkshopByID(ctx, id)
	if err != nil {
		return Workshop{}, err
	}
	if ws.ClubCode != actor.ClubCode {
		return Workshop{}, errClubMismatch
	}

	if uw.Name != "" {
		ws.Name = uw.Name
	}
	if uw.Date != "" {
		ws.Date = uw.Date
	}
	if uw.Time != "" {
		ws.Time = uw.Time
	}
	if uw.Location != "" {
		ws.Location = uw.Location
	}
	if uw.Topic != "" {
		ws.Topic = uw.Topic
	}
	if uw.Description != "" {
		ws.Description = uw.Description
	}
	if uw.Link != "" {
		ws.Link = uw.Link
	}
	if uw.MaxParticipants != nil {
		ws.MaxParticipants = *uw.MaxParticipants
	}
	ws.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateWorkshop(ctx, ws)
}

// Delete removes a workshop and its image blob. The actor must belong to
// the workshop's club.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	ws, err := svc.repo.GetWorkshopByID(ctx, id)
	if err != nil {
		return err
	}
	if ws.ClubCode != actor.ClubCode {
		return errClubMismatch
	}
	if err := svc.repo.DeleteWorkshop(ctx, id); err != nil {
		return err
	}
	if ws.ImageID != "" {
		if err := svc.repo.DeleteImage(ctx, ws.ImageID); err != nil {
			svc.log.Warn("deleting image of workshop " + id + ": " + err.Error())
		}
	}
	return nil
}

func (svc *Service) GetImage(ctx context.Context, id string) (Image, error) {
	return svc.repo.GetImageByID(ctx, id)
}

// ClubStats summarizes a club's activity for the admin dashboard.
func (svc *Service) ClubStats(ctx context.Context, clubCode string) (ClubStats, error) {
	clubCode = core.CleanString(clubCode, true /* lower */)
	var stats ClubStats
	var err error
	if stats.TotalWorkshops, err = svc.repo.CountWorkshopsByClub(ctx, clubCode); err != nil {
		return ClubStats{}, err
	}
	if stats.TotalParticipants, err = svc.regs.CountRegistrationsByClub(ctx, clubCode); err != nil {
		return ClubStats{}, err
	}
	if stats.PendingRequests, err = svc.reqs.CountRequests(ctx, clubCode, "", approval.StatusPending); err != nil {
		return ClubStats{}, err
	}
	return stats, nil
}

// SubmitRequest records a club member's workshop proposal, pending the
// club admin's decision. An attached image is kept on the request and only
// persisted as a blob once the request is approved.
func (svc *Service) SubmitRequest(ctx context.Context, actor user.User, nr NewRequest, img *ImageUpload) (Request, error) {
	if !actor.IsClubMember() {
		return Request{}, errMembersOnly
	}

	now := time.Now().UTC()
	req := Request{
		RequesterID:     actor.ID,
		RequesterName:   actor.Username,
		RequesterRole:   string(user.RoleClubMember),
		ClubCode:        actor.ClubCode,
		WorkshopName:    nr.WorkshopName,
		Date:            nr.Date,
		Time:            nr.Time,
		Location:        nr.Location,
		Topic:           nr.Topic,
		Description:     nr.Description,
		MaxParticipants: nr.MaxParticipants,
		Status:          approval.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if img != nil {
		req.ImageData = img.Data
		req.ImageType = img.ContentType
	}
	return svc.reqs.CreateRequest(ctx, req)
}

func (svc *Service) GetRequest(ctx context.Context, id string) (Request, error) {
	return svc.reqs.GetRequestByID(ctx, id)
}

// Requests lists what the actor may see: admins get their club's requests,
// members their own submissions.
func (svc *Service) Requests(ctx context.Context, actor user.User) ([]Request, error) {
	if actor.IsAdmin() {
		return svc.reqs.FilterRequestsByClub(ctx, actor.ClubCode)
	}
	return svc.reqs.FilterRequestsByRequester(ctx, actor.ID)
}

// Stats counts the actor's visible requests by status.
func (svc *Service) Stats(ctx context.Context, actor user.User) (RequestStats, error) {
	clubCode, requesterID := "", actor.ID
	if actor.IsAdmin() {
		clubCode, requesterID = actor.ClubCode, ""
	}

	var stats RequestStats
	for _, s := range []struct {
		status approval.Status
		out    *int
	}{
		{approval.StatusPending, &stats.Pending},
		{approval.StatusApproved, &stats.Approved},
		{approval.StatusRejected, &stats.Rejected},
	} {
		n, err := svc.reqs.CountRequests(ctx, clubCode, requesterID, s.status)
		if err != nil {
			return RequestStats{}, err
		}
		*s.out = n
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}

// ApproveRequest creates the workshop from the request's details and
// transitions the request to approved. Only the admin of the request's club
// may decide. The workshop (and its image blob) is created before the
// transition commits; a failure there leaves the request pending.
func (svc *Service) ApproveRequest(ctx context.Context, actor user.User, id, response string) (Request, error) {
	req, err := svc.reqs.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.AdminID = actor.ID
	req.AdminName = actor.Username
	req.AdminResponse = response
	if req.AdminResponse == "" {
		req.AdminResponse = "Request approved and workshop created"
	}
	return svc.workflow(actor).Approve(ctx, req)
}

// RejectRequest transitions the request to rejected, storing the admin's
// response verbatim.
func (svc *Service) RejectRequest(ctx context.Context, actor user.User, id, response string) (Request, error) {
	req, err := svc.reqs.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.AdminID = actor.ID
	req.AdminName = actor.Username
	req.AdminResponse = response
	if req.AdminResponse == "" {
		req.AdminResponse = "Request rejected"
	}
	return svc.workflow(actor).Reject(ctx, req)
}

func (svc *Service) workflow(actor user.User) approval.Workflow[Request] {
	return approval.Workflow[Request]{
		Status: func(req Request) approval.Status { return req.Status },
		Authorize: func(_ context.Context, req Request) error {
			if !actor.IsAdmin() || actor.ClubCode != req.ClubCode {
				return errClubMismatch
			}
			return nil
		},
		Effect: func(ctx context.Context, req *Request) error {
			ws, err := svc.materialize(ctx, *req, actor)
			if err != nil {
				return err
			}
			req.WorkshopID = ws.ID
			return nil
		},
		Commit: func(ctx context.Context, req Request, outcome approval.Status) (Request, error) {
			req.Status = outcome
			req.UpdatedAt = time.Now().UTC()
			return svc.reqs.CommitDecision(ctx, req)
		},
	}
}

// materialize turns an approved request into a workshop, persisting the
// attached image as a blob first so the workshop can reference it. The
// created records carry the approving admin, not the requester.
func (svc *Service) materialize(ctx context.Context, req Request, approver user.User) (Workshop, error) {
	now := time.Now().UTC()
	ws := Workshop{
		Name:            req.WorkshopName,
		Date:            req.Date,
		Time:            req.Time,
		Location:        req.Location,
		Topic:           req.Topic,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		ClubCode:        req.ClubCode,
		CreatedBy:       approver.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(req.ImageData) > 0 {
		img, err := svc.repo.CreateImage(ctx, Image{
			Data:        req.ImageData,
			ContentType: req.ImageType,
			UploadedBy:  approver.ID,
			ClubCode:    req.ClubCode,
			CreatedAt:   now,
		})
		if err != nil {
			return Workshop{}, err
		}
		ws.ImageID = img.ID
	}
	ws, err := svc.repo.CreateWorkshop(ctx, ws)
	if err != nil {
		return Workshop{}, err
	}
	if ws.ImageID != "" {
		if err := svc.repo.LinkImageWorkshop(ctx, ws.ImageID, ws.ID); err != nil {
			svc.log.Warn("linking image to workshop " + ws.ID + ": " + err.Error())
		}
	}
	return ws, nil
}

// Register signs a student up for a workshop.
func (svc *Service) Register(ctx context.Context, userID, workshopID string) (Registration, error) {
	if _, err := svc.repo.GetWorkshopByID(ctx, workshopID); err != nil {
		return Registration{}, err
	}
	return svc.regs.CreateRegistration(ctx, Registration{
		WorkshopID: workshopID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) RegistrationsByWorkshop(ctx context.Context, workshopID string) ([]Registration, error) {
	return svc.regs.FilterRegistrationsByWorkshop(ctx, workshopID)
}

func (svc *Service) RegistrationsByUser(ctx context.Context, userID string) ([]Registration, error) {
	return svc.regs.FilterRegistrationsByUser(ctx, userID)
}
