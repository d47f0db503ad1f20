package pgdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
)

type dbAttendee struct {
	WorkshopID string    `db:"workshop_id"`
	UserID     string    `db:"user_id"`
	Name       string    `db:"name"`
	RollNo     string    `db:"roll_no"`
	MarkedBy   string    `db:"marked_by"`
	MarkedAt   time.Time `db:"marked_at"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// MarkPresent is idempotent: the ledger's primary key is the
// (workshop, user) pair and conflicting marks are dropped.
func (repo *attendanceRepository) MarkPresent(ctx context.Context, att attendance.Attendee) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO workshop_attendee (workshop_id, user_id, name, roll_no, marked_by, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workshop_id, user_id) DO NOTHING`,
		att.WorkshopID, att.UserID, att.Name, att.RollNo, att.MarkedBy, att.MarkedAt,
	)
	return err
}

func (repo *attendanceRepository) Remove(ctx context.Context, workshopID, userID string) error {
	res, err := repo.db.ExecContext(ctx, `
		DELETE FROM workshop_attendee WHERE workshop_id = $1 AND user_id = $2`, workshopID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotMarked
	}
	return nil
}

func (repo *attendanceRepository) ListAttendees(ctx context.Context, workshopID string) ([]attendance.Attendee, error) {
	var rows []dbAttendee
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT workshop_id, user_id, name, roll_no, marked_by, marked_at
		FROM workshop_attendee WHERE workshop_id = $1 ORDER BY marked_at, user_id`, workshopID)
	if err != nil {
		return nil, err
	}
	atts := make([]attendance.Attendee, len(rows))
	for i, row := range rows {
		atts[i] = attendance.Attendee(row)
	}
	return atts, nil
}

func (repo *attendanceRepository) CountAttendees(ctx context.Context, workshopID string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM workshop_attendee WHERE workshop_id = $1`, workshopID)
	return n, err
}
