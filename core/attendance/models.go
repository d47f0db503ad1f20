package attendance

import (
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
)

// Attendee is one present-mark in a workshop's ledger. The pair
// (WorkshopID, UserID) is unique; marking twice is a no-op.
type Attendee struct {
	WorkshopID string    `json:"workshopId"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	RollNo     string    `json:"rollNo,omitempty"`
	MarkedBy   string    `json:"markedBy"`
	MarkedAt   time.Time `json:"markedAt"` // UTC
}

// Mark contains information needed to record one attendee.
type Mark struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
}

func (m *Mark) Validate() error {
	m.Name = core.CleanString(m.Name)
	m.RollNo = core.CleanString(m.RollNo)
	return core.Validate.Struct(m)
}
