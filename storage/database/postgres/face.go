package pgdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/face"
)

type dbFaceData struct {
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	RollNo      string    `db:"roll_no"`
	Descriptors []byte    `db:"descriptors"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (d dbFaceData) toData() (face.Data, error) {
	data := face.Data{
		UserID:    d.UserID,
		Name:      d.Name,
		RollNo:    d.RollNo,
		UpdatedAt: d.UpdatedAt,
	}
	if err := json.Unmarshal(d.Descriptors, &data.Descriptors); err != nil {
		return face.Data{}, errors.Wrap(err, "decoding face descriptors")
	}
	return data, nil
}

type dbFaceRequest struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	RollNo    string    `db:"roll_no"`
	Reason    string    `db:"reason"`
	Status    string    `db:"status"`
	DecidedBy string    `db:"decided_by"`
	DecidedAt time.Time `db:"decided_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r dbFaceRequest) toRequest() face.UpdateRequest {
	return face.UpdateRequest{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email,
		RollNo:    r.RollNo,
		Reason:    r.Reason,
		Status:    approval.Status(r.Status),
		DecidedBy: r.DecidedBy,
		DecidedAt: timePtr(r.DecidedAt),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type faceRepository struct {
	db *sqlx.DB
}

func NewFaceRepository(db *sqlx.DB) face.Repository {
	return &faceRepository{db: db}
}

func (repo *faceRepository) SaveData(ctx context.Context, data face.Data) (face.Data, error) {
	descriptors, err := json.Marshal(data.Descriptors)
	if err != nil {
		return face.Data{}, errors.Wrap(err, "encoding face descriptors")
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO face_data (user_id, name, roll_no, descriptors, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET name = $2, roll_no = $3, descriptors = $4, updated_at = $5`,
		data.UserID, data.Name, data.RollNo, descriptors, data.UpdatedAt,
	)
	if err != nil {
		return face.Data{}, err
	}
	return data, nil
}

func (repo *faceRepository) GetDataByUser(ctx context.Context, userID string) (face.Data, error) {
	var row dbFaceData
	err := repo.db.GetContext(ctx, &row, `
		SELECT user_id, name, roll_no, descriptors, updated_at FROM face_data WHERE user_id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return face.Data{}, face.ErrDataNotFound
		}
		return face.Data{}, err
	}
	return row.toData()
}

func (repo *faceRepository) QueryAllData(ctx context.Context) ([]face.Data, error) {
	var rows []dbFaceData
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT user_id, name, roll_no, descriptors, updated_at FROM face_data ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	data := make([]face.Data, len(rows))
	for i, row := range rows {
		if data[i], err = row.toData(); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (repo *faceRepository) DeleteData(ctx context.Context, userID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM face_data WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return face.ErrDataNotFound
	}
	return nil
}

const faceRequestColumns = `id, user_id, name, email, roll_no, reason, status, decided_by, decided_at, created_at, updated_at`

func (repo *faceRepository) CreateRequest(ctx context.Context, req face.UpdateRequest) (face.UpdateRequest, error) {
	req.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO face_update_request (`+faceRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.UserID, req.Name, req.Email, req.RollNo, req.Reason, string(req.Status),
		req.DecidedBy, timeOrZero(req.DecidedAt), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "face_update_request_pending_idx") {
			return face.UpdateRequest{}, face.ErrRequestPending
		}
		return face.UpdateRequest{}, err
	}
	return req, nil
}

func (repo *faceRepository) GetRequestByID(ctx context.Context, id string) (face.UpdateRequest, error) {
	var row dbFaceRequest
	if err := repo.db.GetContext(ctx, &row, `
		SELECT `+faceRequestColumns+` FROM face_update_request WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return face.UpdateRequest{}, face.ErrRequestNotFound
		}
		return face.UpdateRequest{}, err
	}
	return row.toRequest(), nil
}

func (repo *faceRepository) FilterPendingRequests(ctx context.Context) ([]face.UpdateRequest, error) {
	var rows []dbFaceRequest
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+faceRequestColumns+` FROM face_update_request
		WHERE status = 'pending' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	reqs := make([]face.UpdateRequest, len(rows))
	for i, row := range rows {
		reqs[i] = row.toRequest()
	}
	return reqs, nil
}

func (repo *faceRepository) LatestRequestByUser(ctx context.Context, userID string) (face.UpdateRequest, error) {
	var row dbFaceRequest
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+faceRequestColumns+` FROM face_update_request
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return face.UpdateRequest{}, face.ErrRequestNotFound
		}
		return face.UpdateRequest{}, err
	}
	return row.toRequest(), nil
}

// CommitDecision transitions the request out of pending; the WHERE clause
// makes the transition conditional so a concurrent decision loses cleanly.
func (repo *faceRepository) CommitDecision(ctx context.Context, req face.UpdateRequest) (face.UpdateRequest, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE face_update_request
		SET status = $2, decided_by = $3, decided_at = $4, updated_at = $5
		WHERE id = $1 AND status = 'pending'`,
		req.ID, string(req.Status), req.DecidedBy, timeOrZero(req.DecidedAt), req.UpdatedAt,
	)
	if err != nil {
		return face.UpdateRequest{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := repo.GetRequestByID(ctx, req.ID); err != nil {
			return face.UpdateRequest{}, err
		}
		return face.UpdateRequest{}, approval.ErrAlreadyProcessed
	}
	return req, nil
}

func (repo *faceRepository) MarkFulfilled(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE face_update_request
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'approved'`, id, string(face.StatusFulfilled))
	return err
}
