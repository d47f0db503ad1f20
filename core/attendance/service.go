package attendance

import (
	"context"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

var ErrNotMarked = core.NewNotFoundError("Attendee not found in this workshop's attendance")

type (
	// Repository persists attendance ledgers. MarkPresent must be
	// idempotent on the (workshop, user) pair; Remove returns ErrNotMarked
	// when the pair is absent. ListAttendees returns attendees ordered by
	// when they were first marked.
	Repository interface {
		MarkPresent(ctx context.Context, att Attendee) error
		Remove(ctx context.Context, workshopID, userID string) error
		ListAttendees(ctx context.Context, workshopID string) ([]Attendee, error)
		CountAttendees(ctx context.Context, workshopID string) (int, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// MarkPresent records the given users as present, merging into the existing
// ledger. Users already marked keep their original mark.
func (svc *Service) MarkPresent(ctx context.Context, actor user.User, workshopID string, marks ...Mark) error {
	now := time.Now().UTC()
	for _, m := range marks {
		att := Attendee{
			WorkshopID: workshopID,
			UserID:     m.UserID,
			Name:       m.Name,
			RollNo:     m.RollNo,
			MarkedBy:   actor.ID,
			MarkedAt:   now,
		}
		if err := svc.repo.MarkPresent(ctx, att); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes one attendee's mark from a workshop's ledger.
func (svc *Service) Remove(ctx context.Context, workshopID, userID string) error {
	return svc.repo.Remove(ctx, workshopID, userID)
}

// Attendees lists a workshop's ledger in marking order.
func (svc *Service) Attendees(ctx context.Context, workshopID string) ([]Attendee, error) {
	return svc.repo.ListAttendees(ctx, workshopID)
}

func (svc *Service) Count(ctx context.Context, workshopID string) (int, error) {
	return svc.repo.CountAttendees(ctx, workshopID)
}
