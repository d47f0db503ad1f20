package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

type workshopRepository struct {
	db *DB
}

func NewWorkshopRepository(db *DB) workshop.Repository {
	return &workshopRepository{db: db}
}

func (repo *workshopRepository) query() []workshop.Workshop {
	wss := make([]workshop.Workshop, 0, len(repo.db.workshops))
	for _, ws := range repo.db.workshops {
		wss = append(wss, *ws)
	}
	sort.Slice(wss, func(i, j int) bool { return wss[i].CreatedAt.Before(wss[j].CreatedAt) })
	return wss
}

func (repo *workshopRepository) CreateWorkshop(_ context.Context, ws workshop.Workshop) (workshop.Workshop, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ws.ID = uuid.NewString()
	repo.db.workshops[ws.ID] = &ws
	return ws, nil
}

func (repo *workshopRepository) GetWorkshopByID(_ context.Context, id string) (workshop.Workshop, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ws, ok := repo.db.workshops[id]; ok {
		return *ws, nil
	}
	return workshop.Workshop{}, workshop.ErrNotFound
}

func (repo *workshopRepository) QueryAllWorkshops(_ context.Context) ([]workshop.Workshop, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *workshopRepository) FilterWorkshopsByClub(_ context.Context, clubCode string) ([]workshop.Workshop, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var wss []workshop.Workshop
	for _, ws := range repo.query() {
		if ws.ClubCode == clubCode {
			wss = append(wss, ws)
		}
	}
	return wss, nil
}

func (repo *workshopRepository) UpdateWorkshop(_ context.Context, ws workshop.Workshop) (workshop.Workshop, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.workshops[ws.ID]; !ok {
		return workshop.Workshop{}, workshop.ErrNotFound
	}
	repo.db.workshops[ws.ID] = &ws
	return ws, nil
}

func (repo *workshopRepository) DeleteWorkshop(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.workshops[id]; !ok {
		return workshop.ErrNotFound
	}
	delete(repo.db.workshops, id)
	return nil
}

func (repo *workshopRepository) CountWorkshopsByClub(_ context.Context, clubCode string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, ws := range repo.db.workshops {
		if ws.ClubCode == clubCode {
			n++
		}
	}
	return n, nil
}

func (repo *workshopRepository) CreateImage(_ context.Context, img workshop.Image) (workshop.Image, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	img.ID = uuid.NewString()
	repo.db.images[img.ID] = &img
	return img, nil
}

func (repo *workshopRepository) GetImageByID(_ context.Context, id string) (workshop.Image, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if img, ok := repo.db.images[id]; ok {
		return *img, nil
	}
	return workshop.Image{}, workshop.ErrImageNotFound
}

func (repo *workshopRepository) LinkImageWorkshop(_ context.Context, imageID, workshopID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	img, ok := repo.db.images[imageID]
	if !ok {
		return workshop.ErrImageNotFound
	}
	img.WorkshopID = workshopID
	return nil
}

func (repo *workshopRepository) DeleteImage(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.images[id]; !ok {
		return workshop.ErrImageNotFound
	}
	delete(repo.db.images, id)
	return nil
}

type workshopRequestRepository struct {
	db *DB
}

func NewWorkshopRequestRepository(db *DB) workshop.RequestRepository {
	return &workshopRequestRepository{db: db}
}

func (repo *workshopRequestRepository) query() []workshop.Request {
	reqs := make([]workshop.Request, 0, len(repo.db.wsRequests))
	for _, req := range repo.db.wsRequests {
		reqs = append(reqs, *req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs
}

func (repo *workshopRequestRepository) CreateRequest(_ context.Context, req workshop.Request) (workshop.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req.ID = uuid.NewString()
	repo.db.wsRequests[req.ID] = &req
	return req, nil
}

func (repo *workshopRequestRepository) GetRequestByID(_ context.Context, id string) (workshop.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.wsRequests[id]; ok {
		return *req, nil
	}
	return workshop.Request{}, workshop.ErrRequestNotFound
}

func (repo *workshopRequestRepository) FilterRequestsByClub(_ context.Context, clubCode string) ([]workshop.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reqs []workshop.Request
	for _, req := range repo.query() {
		if req.ClubCode == clubCode {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (repo *workshopRequestRepository) FilterRequestsByRequester(_ context.Context, requesterID string) ([]workshop.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reqs []workshop.Request
	for _, req := range repo.query() {
		if req.RequesterID == requesterID {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (repo *workshopRequestRepository) CommitDecision(_ context.Context, req workshop.Request) (workshop.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.wsRequests[req.ID]
	if !ok {
		return workshop.Request{}, workshop.ErrRequestNotFound
	}
	if orig.Status != approval.StatusPending {
		return workshop.Request{}, approval.ErrAlreadyProcessed
	}
	*orig = req
	return *orig, nil
}

func (repo *workshopRequestRepository) CountRequests(_ context.Context, clubCode, requesterID string, status approval.Status) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, req := range repo.db.wsRequests {
		if clubCode != "" && req.ClubCode != clubCode {
			continue
		}
		if requesterID != "" && req.RequesterID != requesterID {
			continue
		}
		if req.Status == status {
			n++
		}
	}
	return n, nil
}

type workshopRegistrationRepository struct {
	db *DB
}

func NewWorkshopRegistrationRepository(db *DB) workshop.RegistrationRepository {
	return &workshopRegistrationRepository{db: db}
}

// CreateRegistration enforces one-signup-per-student-per-workshop under the
// write lock, like the unique index does in postgres.
func (repo *workshopRegistrationRepository) CreateRegistration(_ context.Context, reg workshop.Registration) (workshop.Registration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.registrations {
		if r.WorkshopID == reg.WorkshopID && r.UserID == reg.UserID {
			return workshop.Registration{}, workshop.ErrAlreadyRegistered
		}
	}

	reg.ID = uuid.NewString()
	repo.db.registrations[reg.ID] = &reg
	return reg, nil
}

func (repo *workshopRegistrationRepository) query() []workshop.Registration {
	regs := make([]workshop.Registration, 0, len(repo.db.registrations))
	for _, reg := range repo.db.registrations {
		regs = append(regs, *reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
	return regs
}

func (repo *workshopRegistrationRepository) FilterRegistrationsByWorkshop(_ context.Context, workshopID string) ([]workshop.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var regs []workshop.Registration
	for _, reg := range repo.query() {
		if reg.WorkshopID == workshopID {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (repo *workshopRegistrationRepository) FilterRegistrationsByUser(_ context.Context, userID string) ([]workshop.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var regs []workshop.Registration
	for _, reg := range repo.query() {
		if reg.UserID == userID {
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func (repo *workshopRegistrationRepository) CountRegistrationsByClub(_ context.Context, clubCode string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, reg := range repo.db.registrations {
		if ws, ok := repo.db.workshops[reg.WorkshopID]; ok && ws.ClubCode == clubCode {
			n++
		}
	}
	return n, nil
}
