package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
)

type faceRepository struct {
	db *DB
}

func NewFaceRepository(db *DB) face.Repository {
	return &faceRepository{db: db}
}

func (repo *faceRepository) SaveData(_ context.Context, data face.Data) (face.Data, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.faceData[data.UserID] = &data
	return data, nil
}

func (repo *faceRepository) GetDataByUser(_ context.Context, userID string) (face.Data, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if data, ok := repo.db.faceData[userID]; ok {
		return *data, nil
	}
	return face.Data{}, face.ErrDataNotFound
}

func (repo *faceRepository) QueryAllData(_ context.Context) ([]face.Data, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	data := make([]face.Data, 0, len(repo.db.faceData))
	for _, d := range repo.db.faceData {
		data = append(data, *d)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].UserID < data[j].UserID })
	return data, nil
}

func (repo *faceRepository) DeleteData(_ context.Context, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.faceData[userID]; !ok {
		return face.ErrDataNotFound
	}
	delete(repo.db.faceData, userID)
	return nil
}

// CreateRequest enforces one-pending-request-per-user under the write lock,
// like the partial unique index does in postgres.
func (repo *faceRepository) CreateRequest(_ context.Context, req face.UpdateRequest) (face.UpdateRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.faceRequests {
		if r.UserID == req.UserID && r.Status == approval.StatusPending {
			return face.UpdateRequest{}, face.ErrRequestPending
		}
	}

	req.ID = uuid.NewString()
	repo.db.faceRequests[req.ID] = &req
	return req, nil
}

func (repo *faceRepository) GetRequestByID(_ context.Context, id string) (face.UpdateRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.faceRequests[id]; ok {
		return *req, nil
	}
	return face.UpdateRequest{}, face.ErrRequestNotFound
}

func (repo *faceRepository) FilterPendingRequests(_ context.Context) ([]face.UpdateRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var reqs []face.UpdateRequest
	for _, req := range repo.db.faceRequests {
		if req.Status == approval.StatusPending {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *faceRepository) LatestRequestByUser(_ context.Context, userID string) (face.UpdateRequest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var latest *face.UpdateRequest
	for _, req := range repo.db.faceRequests {
		if req.UserID != userID {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return face.UpdateRequest{}, face.ErrRequestNotFound
	}
	return *latest, nil
}

func (repo *faceRepository) CommitDecision(_ context.Context, req face.UpdateRequest) (face.UpdateRequest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.faceRequests[req.ID]
	if !ok {
		return face.UpdateRequest{}, face.ErrRequestNotFound
	}
	if orig.Status != approval.StatusPending {
		return face.UpdateRequest{}, approval.ErrAlreadyProcessed
	}
	*orig = req
	return *orig, nil
}

func (repo *faceRepository) MarkFulfilled(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req, ok := repo.db.faceRequests[id]
	if !ok {
		return face.ErrRequestNotFound
	}
	if req.Status == approval.StatusApproved {
		req.Status = face.StatusFulfilled
	}
	return nil
}
