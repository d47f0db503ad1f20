package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
)

type registrationRepository struct {
	db *DB
}

func NewRegistrationRepository(db *DB) registration.Repository {
	return &registrationRepository{db: db}
}

// CreateRequest enforces one-pending-request-per-identity+club under the
// write lock, like the partial unique index does in postgres.
func (repo *registrationRepository) CreateRequest(_ context.Context, req registration.Request) (registration.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.regRequests {
		if r.Status != approval.StatusPending || r.ClubCode != req.ClubCode {
			continue
		}
		if r.Username == req.Username || r.Email == req.Email {
			return registration.Request{}, registration.ErrRequestPending
		}
	}

	req.ID = uuid.NewString()
	repo.db.regRequests[req.ID] = &req
	return req, nil
}

func (repo *registrationRepository) GetRequestByID(_ context.Context, id string) (registration.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.regRequests[id]; ok {
		return *req, nil
	}
	return registration.Request{}, registration.ErrNotFound
}

func (repo *registrationRepository) FilterPending(_ context.Context, typ registration.Type, clubCode string) ([]registration.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reqs []registration.Request
	for _, req := range repo.db.regRequests {
		if req.Status != approval.StatusPending || req.Type != typ {
			continue
		}
		if clubCode != "" && req.ClubCode != clubCode {
			continue
		}
		reqs = append(reqs, *req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *registrationRepository) CommitDecision(_ context.Context, req registration.Request) (registration.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.regRequests[req.ID]
	if !ok {
		return registration.Request{}, registration.ErrNotFound
	}
	if orig.Status != approval.StatusPending {
		return registration.Request{}, approval.ErrAlreadyProcessed
	}
	*orig = req
	return *orig, nil
}

func (repo *registrationRepository) MarkEmailSent(_ context.Context, id string, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req, ok := repo.db.regRequests[id]
	if !ok {
		return registration.ErrNotFound
	}
	req.EmailSent = true
	req.EmailSentAt = &at
	return nil
}
