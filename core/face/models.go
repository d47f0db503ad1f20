// Package face manages per-student face descriptor data and the approval
// flow guarding its re-capture. Matching itself happens on the client; the
// server only stores and serves descriptors.
package face

import (
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
)

// StatusFulfilled marks an approved update request whose new descriptors
// have been captured.
const StatusFulfilled = approval.Status("fulfilled")

// Data holds one student's face descriptors.
type Data struct {
	UserID      string      `json:"userId"`
	Name        string      `json:"name"`
	RollNo      string      `json:"rollNo,omitempty"`
	Descriptors [][]float64 `json:"descriptors"`
	UpdatedAt   time.Time   `json:"updatedAt"` // UTC
}

// UpdateRequest is a student's request to re-capture their face data.
// Life cycle: pending -> approved -> fulfilled, or pending -> rejected.
type UpdateRequest struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	RollNo    string          `json:"rollNo,omitempty"`
	Reason    string          `json:"reason"`
	Status    approval.Status `json:"status"`
	DecidedBy string          `json:"decidedBy,omitempty"`
	DecidedAt *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"` // UTC
	UpdatedAt time.Time       `json:"updatedAt"` // UTC
}

// DataStatus is a student's face data summary: whether descriptors exist
// and where their latest update request stands ("none" when they have
// never filed one).
type DataStatus struct {
	HasFaceData   bool   `json:"hasFaceData"`
	RequestStatus string `json:"requestStatus"`
}

// NewDescriptors contains a capture submission.
type NewDescriptors struct {
	Descriptors [][]float64 `json:"descriptors" validate:"required,min=1,dive,min=1"`
}

func (nd *NewDescriptors) Validate() error {
	return core.Validate.Struct(nd)
}

// NewUpdateRequest contains information needed to file an update request.
type NewUpdateRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (nr *NewUpdateRequest) Validate() error {
	nr.Reason = core.CleanString(nr.Reason)
	return core.Validate.Struct(nr)
}
