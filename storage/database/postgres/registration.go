package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/registration"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type dbRegRequest struct {
	ID           string         `db:"id"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	PasswordHash []byte         `db:"password_hash"`
	Roles        pq.StringArray `db:"roles"`
	ClubCode     string         `db:"club_code"`
	Status       string         `db:"status"`
	RequestType  string         `db:"request_type"`
	TargetEmail  string         `db:"target_email"`
	ApprovedBy   string         `db:"approved_by"`
	ApprovedAt   time.Time      `db:"approved_at"`
	RejectReason string         `db:"reject_reason"`
	EmailSent    bool           `db:"email_sent"`
	EmailSentAt  time.Time      `db:"email_sent_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r dbRegRequest) toRequest() registration.Request {
	roles := make([]user.Role, len(r.Roles))
	for i, role := range r.Roles {
		roles[i] = user.Role(role)
	}
	return registration.Request{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Roles:        roles,
		ClubCode:     r.ClubCode,
		Status:       approval.Status(r.Status),
		Type:         registration.Type(r.RequestType),
		TargetEmail:  r.TargetEmail,
		ApprovedBy:   r.ApprovedBy,
		ApprovedAt:   timePtr(r.ApprovedAt),
		RejectReason: r.RejectReason,
		EmailSent:    r.EmailSent,
		EmailSentAt:  timePtr(r.EmailSentAt),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type registrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) registration.Repository {
	return &registrationRepository{db: db}
}

const regRequestColumns = `id, username, email, password_hash, roles, club_code, status, request_type,
	target_email, approved_by, approved_at, reject_reason, email_sent, email_sent_at, created_at, updated_at`

func (repo *registrationRepository) CreateRequest(ctx context.Context, req registration.Request) (registration.Request, error) {
	req.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO registration_request (`+regRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		req.ID, req.Username, req.Email, req.PasswordHash, rolesArray(req.Roles), req.ClubCode,
		string(req.Status), string(req.Type), req.TargetEmail, req.ApprovedBy, timeOrZero(req.ApprovedAt),
		req.RejectReason, req.EmailSent, timeOrZero(req.EmailSentAt), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "") {
			return registration.Request{}, registration.ErrRequestPending
		}
		return registration.Request{}, err
	}
	return req, nil
}

func (repo *registrationRepository) GetRequestByID(ctx context.Context, id string) (registration.Request, error) {
	var row dbRegRequest
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+regRequestColumns+` FROM registration_request WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return registration.Request{}, registration.ErrNotFound
		}
		return registration.Request{}, err
	}
	return row.toRequest(), nil
}

func (repo *registrationRepository) FilterPending(ctx context.Context, typ registration.Type, clubCode string) ([]registration.Request, error) {
	var rows []dbRegRequest
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+regRequestColumns+` FROM registration_request
		WHERE status = 'pending' AND request_type = $1 AND ($2 = '' OR club_code = $2)
		ORDER BY created_at`, string(typ), clubCode)
	if err != nil {
		return nil, err
	}
	reqs := make([]registration.Request, len(rows))
	for i, row := range rows {
		reqs[i] = row.toRequest()
	}
	return reqs, nil
}

// CommitDecision transitions the request out of pending; the WHERE clause
// makes the transition conditional so a concurrent decision loses cleanly.
func (repo *registrationRepository) CommitDecision(ctx context.Context, req registration.Request) (registration.Request, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE registration_request
		SET status = $2, approved_by = $3, approved_at = $4, reject_reason = $5, updated_at = $6
		WHERE id = $1 AND status = 'pending'`,
		req.ID, string(req.Status), req.ApprovedBy, timeOrZero(req.ApprovedAt), req.RejectReason, req.UpdatedAt,
	)
	if err != nil {
		return registration.Request{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := repo.GetRequestByID(ctx, req.ID); err != nil {
			return registration.Request{}, err
		}
		return registration.Request{}, approval.ErrAlreadyProcessed
	}
	return req, nil
}

func (repo *registrationRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE registration_request SET email_sent = TRUE, email_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registration.ErrNotFound
	}
	return nil
}
