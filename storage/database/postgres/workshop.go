package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/workshop"
)

// nullUUID maps the domain's empty-string "no reference" onto a NULL uuid
// column.
func nullUUID(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type dbWorkshop struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Date            string         `db:"date"`
	Time            string         `db:"time"`
	Location        string         `db:"location"`
	Topic           string         `db:"topic"`
	Description     string         `db:"description"`
	Link            string         `db:"link"`
	MaxParticipants int            `db:"max_participants"`
	ClubCode        string         `db:"club_code"`
	ImageID         sql.NullString `db:"image_id"`
	CreatedBy       string         `db:"created_by"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (w dbWorkshop) toWorkshop() workshop.Workshop {
	return workshop.Workshop{
		ID:              w.ID,
		Name:            w.Name,
		Date:            w.Date,
		Time:            w.Time,
		Location:        w.Location,
		Topic:           w.Topic,
		Description:     w.Description,
		Link:            w.Link,
		MaxParticipants: w.MaxParticipants,
		ClubCode:        w.ClubCode,
		ImageID:         w.ImageID.String,
		CreatedBy:       w.CreatedBy,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

type workshopRepository struct {
	db *sqlx.DB
}

func NewWorkshopRepository(db *sqlx.DB) workshop.Repository {
	return &workshopRepository{db: db}
}

const workshopColumns = `id, name, date, time, location, topic, description, link,
	max_participants, club_code, image_id, created_by, created_at, updated_at`

func (repo *workshopRepository) CreateWorkshop(ctx context.Context, ws workshop.Workshop) (workshop.Workshop, error) {
	ws.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO workshop (`+workshopColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ws.ID, ws.Name, ws.Date, ws.Time, ws.Location, ws.Topic, ws.Description, ws.Link,
		ws.MaxParticipants, ws.ClubCode, nullUUID(ws.ImageID), ws.CreatedBy, ws.CreatedAt, ws.UpdatedAt,
	)
	if err != nil {
		return workshop.Workshop{}, err
	}
	return ws, nil
}

func (repo *workshopRepository) GetWorkshopByID(ctx context.Context, id string) (workshop.Workshop, error) {
	var row dbWorkshop
	if err := repo.db.GetContext(ctx, &row, `SELECT `+workshopColumns+` FROM workshop WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return workshop.Workshop{}, workshop.ErrNotFound
		}
		return workshop.Workshop{}, err
	}
	return row.toWorkshop(), nil
}

func (repo *workshopRepository) selectWorkshops(ctx context.Context, query string, args ...interface{}) ([]workshop.Workshop, error) {
	var rows []dbWorkshop
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	wss := make([]workshop.Workshop, len(rows))
	for i, row := range rows {
		wss[i] = row.toWorkshop()
	}
	return wss, nil
}

func (repo *workshopRepository) QueryAllWorkshops(ctx context.Context) ([]workshop.Workshop, error) {
	return repo.selectWorkshops(ctx, `SELECT `+workshopColumns+` FROM workshop ORDER BY created_at`)
}

func (repo *workshopRepository) FilterWorkshopsByClub(ctx context.Context, clubCode string) ([]workshop.Workshop, error) {
	return repo.selectWorkshops(ctx, `
		SELECT `+workshopColumns+` FROM workshop WHERE club_code = $1 ORDER BY created_at`, clubCode)
}

func (repo *workshopRepository) UpdateWorkshop(ctx context.Context, ws workshop.Workshop) (workshop.Workshop, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE workshop
		SET name = $2, date = $3, time = $4, location = $5, topic = $6, description = $7,
		    link = $8, max_participants = $9, image_id = $10, updated_at = $11
		WHERE id = $1`,
		ws.ID, ws.Name, ws.Date, ws.Time, ws.Location, ws.Topic, ws.Description,
		ws.Link, ws.MaxParticipants, nullUUID(ws.ImageID), ws.UpdatedAt,
	)
	if err != nil {
		return workshop.Workshop{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return workshop.Workshop{}, workshop.ErrNotFound
	}
	return ws, nil
}

func (repo *workshopRepository) DeleteWorkshop(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM workshop WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return workshop.ErrNotFound
	}
	return nil
}

func (repo *workshopRepository) CountWorkshopsByClub(ctx context.Context, clubCode string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM workshop WHERE club_code = $1`, clubCode)
	return n, err
}

type dbImage struct {
	ID          string         `db:"id"`
	WorkshopID  sql.NullString `db:"workshop_id"`
	Data        []byte         `db:"data"`
	ContentType string         `db:"content_type"`
	UploadedBy  string         `db:"uploaded_by"`
	ClubCode    string         `db:"club_code"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (repo *workshopRepository) CreateImage(ctx context.Context, img workshop.Image) (workshop.Image, error) {
	img.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO workshop_image (id, workshop_id, data, content_type, uploaded_by, club_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		img.ID, nullUUID(img.WorkshopID), img.Data, img.ContentType, img.UploadedBy, img.ClubCode, img.CreatedAt,
	)
	if err != nil {
		return workshop.Image{}, err
	}
	return img, nil
}

func (repo *workshopRepository) GetImageByID(ctx context.Context, id string) (workshop.Image, error) {
	var row dbImage
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, workshop_id, data, content_type, uploaded_by, club_code, created_at
		FROM workshop_image WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return workshop.Image{}, workshop.ErrImageNotFound
		}
		return workshop.Image{}, err
	}
	return workshop.Image{
		ID:          row.ID,
		WorkshopID:  row.WorkshopID.String,
		Data:        row.Data,
		ContentType: row.ContentType,
		UploadedBy:  row.UploadedBy,
		ClubCode:    row.ClubCode,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (repo *workshopRepository) LinkImageWorkshop(ctx context.Context, imageID, workshopID string) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE workshop_image SET workshop_id = $2 WHERE id = $1`, imageID, workshopID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return workshop.ErrImageNotFound
	}
	return nil
}

func (repo *workshopRepository) DeleteImage(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM workshop_image WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return workshop.ErrImageNotFound
	}
	return nil
}

type dbWorkshopRequest struct {
	ID              string         `db:"id"`
	RequesterID     string         `db:"requester_id"`
	RequesterName   string         `db:"requester_name"`
	RequesterRole   string         `db:"requester_role"`
	ClubCode        string         `db:"club_code"`
	WorkshopName    string         `db:"workshop_name"`
	Date            string         `db:"date"`
	Time            string         `db:"time"`
	Location        string         `db:"location"`
	Topic           string         `db:"topic"`
	Description     string         `db:"description"`
	MaxParticipants int            `db:"max_participants"`
	ImageData       []byte         `db:"image_data"`
	ImageType       string         `db:"image_type"`
	Status          string         `db:"status"`
	AdminID         string         `db:"admin_id"`
	AdminName       string         `db:"admin_name"`
	AdminResponse   string         `db:"admin_response"`
	WorkshopID      sql.NullString `db:"workshop_id"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r dbWorkshopRequest) toRequest() workshop.Request {
	return workshop.Request{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		RequesterName:   r.RequesterName,
		RequesterRole:   r.RequesterRole,
		ClubCode:        r.ClubCode,
		WorkshopName:    r.WorkshopName,
		Date:            r.Date,
		Time:            r.Time,
		Location:        r.Location,
		Topic:           r.Topic,
		Description:     r.Description,
		MaxParticipants: r.MaxParticipants,
		ImageData:       r.ImageData,
		ImageType:       r.ImageType,
		Status:          approval.Status(r.Status),
		AdminID:         r.AdminID,
		AdminName:       r.AdminName,
		AdminResponse:   r.AdminResponse,
		WorkshopID:      r.WorkshopID.String,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type workshopRequestRepository struct {
	db *sqlx.DB
}

func NewWorkshopRequestRepository(db *sqlx.DB) workshop.RequestRepository {
	return &workshopRequestRepository{db: db}
}

const wsRequestColumns = `id, requester_id, requester_name, requester_role, club_code, workshop_name,
	date, time, location, topic, description, max_participants, image_data, image_type,
	status, admin_id, admin_name, admin_response, workshop_id, created_at, updated_at`

func (repo *workshopRequestRepository) CreateRequest(ctx context.Context, req workshop.Request) (workshop.Request, error) {
	req.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO workshop_request (`+wsRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		req.ID, req.RequesterID, req.RequesterName, req.RequesterRole, req.ClubCode, req.WorkshopName,
		req.Date, req.Time, req.Location, req.Topic, req.Description, req.MaxParticipants,
		req.ImageData, req.ImageType, string(req.Status), req.AdminID, req.AdminName,
		req.AdminResponse, nullUUID(req.WorkshopID), req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return workshop.Request{}, err
	}
	return req, nil
}

func (repo *workshopRequestRepository) GetRequestByID(ctx context.Context, id string) (workshop.Request, error) {
	var row dbWorkshopRequest
	if err := repo.db.GetContext(ctx, &row, `SELECT `+wsRequestColumns+` FROM workshop_request WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return workshop.Request{}, workshop.ErrRequestNotFound
		}
		return workshop.Request{}, err
	}
	return row.toRequest(), nil
}

func (repo *workshopRequestRepository) selectRequests(ctx context.Context, query string, args ...interface{}) ([]workshop.Request, error) {
	var rows []dbWorkshopRequest
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	reqs := make([]workshop.Request, len(rows))
	for i, row := range rows {
		reqs[i] = row.toRequest()
	}
	return reqs, nil
}

func (repo *workshopRequestRepository) FilterRequestsByClub(ctx context.Context, clubCode string) ([]workshop.Request, error) {
	return repo.selectRequests(ctx, `
		SELECT `+wsRequestColumns+` FROM workshop_request WHERE club_code = $1 ORDER BY created_at`, clubCode)
}

func (repo *workshopRequestRepository) FilterRequestsByRequester(ctx context.Context, requesterID string) ([]workshop.Request, error) {
	return repo.selectRequests(ctx, `
		SELECT `+wsRequestColumns+` FROM workshop_request WHERE requester_id = $1 ORDER BY created_at`, requesterID)
}

// CommitDecision transitions the request out of pending; the WHERE clause
// makes the transition conditional so a concurrent decision loses cleanly.
func (repo *workshopRequestRepository) CommitDecision(ctx context.Context, req workshop.Request) (workshop.Request, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE workshop_request
		SET status = $2, admin_id = $3, admin_name = $4, admin_response = $5, workshop_id = $6, updated_at = $7
		WHERE id = $1 AND status = 'pending'`,
		req.ID, string(req.Status), req.AdminID, req.AdminName, req.AdminResponse,
		nullUUID(req.WorkshopID), req.UpdatedAt,
	)
	if err != nil {
		return workshop.Request{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := repo.GetRequestByID(ctx, req.ID); err != nil {
			return workshop.Request{}, err
		}
		return workshop.Request{}, approval.ErrAlreadyProcessed
	}
	return req, nil
}

func (repo *workshopRequestRepository) CountRequests(ctx context.Context, clubCode, requesterID string, status approval.Status) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM workshop_request
		WHERE ($1 = '' OR club_code = $1)
		  AND ($2 = '' OR requester_id = $2)
		  AND status = $3`, clubCode, requesterID, string(status))
	return n, err
}

type dbRegistration struct {
	ID         string    `db:"id"`
	WorkshopID string    `db:"workshop_id"`
	UserID     string    `db:"user_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type workshopRegistrationRepository struct {
	db *sqlx.DB
}

func NewWorkshopRegistrationRepository(db *sqlx.DB) workshop.RegistrationRepository {
	return &workshopRegistrationRepository{db: db}
}

func (repo *workshopRegistrationRepository) CreateRegistration(ctx context.Context, reg workshop.Registration) (workshop.Registration, error) {
	reg.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO workshop_registration (id, workshop_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.WorkshopID, reg.UserID, reg.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "") {
			return workshop.Registration{}, workshop.ErrAlreadyRegistered
		}
		return workshop.Registration{}, err
	}
	return reg, nil
}

func (repo *workshopRegistrationRepository) selectRegistrations(ctx context.Context, query string, args ...interface{}) ([]workshop.Registration, error) {
	var rows []dbRegistration
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	regs := make([]workshop.Registration, len(rows))
	for i, row := range rows {
		regs[i] = workshop.Registration(row)
	}
	return regs, nil
}

func (repo *workshopRegistrationRepository) FilterRegistrationsByWorkshop(ctx context.Context, workshopID string) ([]workshop.Registration, error) {
	return repo.selectRegistrations(ctx, `
		SELECT id, workshop_id, user_id, created_at FROM workshop_registration
		WHERE workshop_id = $1 ORDER BY created_at`, workshopID)
}

func (repo *workshopRegistrationRepository) FilterRegistrationsByUser(ctx context.Context, userID string) ([]workshop.Registration, error) {
	return repo.selectRegistrations(ctx, `
		SELECT id, workshop_id, user_id, created_at FROM workshop_registration
		WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (repo *workshopRegistrationRepository) CountRegistrationsByClub(ctx context.Context, clubCode string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM workshop_registration r
		JOIN workshop w ON w.id = r.workshop_id
		WHERE w.club_code = $1`, clubCode)
	return n, err
}
