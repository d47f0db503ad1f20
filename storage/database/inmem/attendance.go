package inmemdb

import (
	"context"

	"github.com/WMS-GIETU/WorkshopMS/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// MarkPresent is idempotent: a user already in the workshop's ledger keeps
// their original mark.
func (repo *attendanceRepository) MarkPresent(_ context.Context, att attendance.Attendee) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, a := range repo.db.attendees[att.WorkshopID] {
		if a.UserID == att.UserID {
			return nil
		}
	}
	repo.db.attendees[att.WorkshopID] = append(repo.db.attendees[att.WorkshopID], att)
	return nil
}

func (repo *attendanceRepository) Remove(_ context.Context, workshopID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	atts := repo.db.attendees[workshopID]
	for i, a := range atts {
		if a.UserID == userID {
			repo.db.attendees[workshopID] = append(atts[:i], atts[i+1:]...)
			return nil
		}
	}
	return attendance.ErrNotMarked
}

func (repo *attendanceRepository) ListAttendees(_ context.Context, workshopID string) ([]attendance.Attendee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	atts := make([]attendance.Attendee, len(repo.db.attendees[workshopID]))
	copy(atts, repo.db.attendees[workshopID])
	return atts, nil
}

func (repo *attendanceRepository) CountAttendees(_ context.Context, workshopID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.attendees[workshopID]), nil
}
