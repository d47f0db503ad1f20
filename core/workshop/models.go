package workshop

import (
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
)

type Workshop struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            string    `json:"date"` // YYYY-MM-DD, as submitted
	Time            string    `json:"time"`
	Location        string    `json:"location"`
	Topic           string    `json:"topic"`
	Description     string    `json:"description,omitempty"`
	Link            string    `json:"link,omitempty"`
	MaxParticipants int       `json:"maxParticipants"`
	ClubCode        string    `json:"clubCode"`
	ImageID         string    `json:"imageId,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

// Image is a stored workshop image blob, linked back to its workshop once
// the workshop exists.
type Image struct {
	ID          string    `json:"id"`
	WorkshopID  string    `json:"workshopId,omitempty"`
	Data        []byte    `json:"data"`
	ContentType string    `json:"contentType"`
	UploadedBy  string    `json:"uploadedBy"`
	ClubCode    string    `json:"clubCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Request is a club member's proposal for a workshop. Approval materializes
// the Workshop and links it back via WorkshopID.
type Request struct {
	ID              string          `json:"id"`
	RequesterID     string          `json:"requesterId"`
	RequesterName   string          `json:"requesterName"`
	RequesterRole   string          `json:"requesterRole"`
	ClubCode        string          `json:"clubCode"`
	WorkshopName    string          `json:"workshopName"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Location        string          `json:"location"`
	Topic           string          `json:"topic"`
	Description     string          `json:"description,omitempty"`
	MaxParticipants int             `json:"maxParticipants"`
	ImageData       []byte          `json:"-"` // attached upload, persisted as an Image on approval
	ImageType       string          `json:"-"`
	Status          approval.Status `json:"status"`
	AdminID         string          `json:"adminId,omitempty"`
	AdminName       string          `json:"adminName,omitempty"`
	AdminResponse   string          `json:"adminResponse,omitempty"`
	WorkshopID      string          `json:"workshopId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"` // UTC
	UpdatedAt       time.Time       `json:"updatedAt"` // UTC
}

// Registration is a student signup for a workshop.
type Registration struct {
	ID         string    `json:"id"`
	WorkshopID string    `json:"workshopId"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RequestStats counts a scope's requests by status.
type RequestStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ClubStats is the admin dashboard summary for a club.
type ClubStats struct {
	TotalWorkshops    int `json:"totalWorkshops"`
	TotalParticipants int `json:"totalParticipants"`
	PendingRequests   int `json:"pendingRequests"`
}

// ImageUpload is a multipart image attachment.
type ImageUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

const MaxImageSize = 5 << 20 // 5MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

func (iu *ImageUpload) Validate() error {
	if len(iu.Data) > MaxImageSize {
		return core.NewValidationError(nil, core.FieldError{Field: "image", Error: "image exceeds the 5MB size limit"})
	}
	if !allowedImageTypes[iu.ContentType] {
		return core.NewValidationError(nil, core.FieldError{Field: "image", Error: "Images only (jpeg, jpg, png)!"})
	}
	return nil
}

// NewWorkshop contains information needed to create a workshop directly.
type NewWorkshop struct {
	Name            string `json:"name" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Topic           string `json:"topic" validate:"required"`
	Description     string `json:"description"`
	Link            string `json:"link"`
	MaxParticipants int    `json:"maxParticipants" validate:"omitempty,min=0"`
	ClubCode        string `json:"clubCode" validate:"required"`
}

func (nw *NewWorkshop) Validate() error {
	nw.Name = core.CleanString(nw.Name)
	nw.ClubCode = core.CleanString(nw.ClubCode, true /* lower */)
	return core.Validate.Struct(nw)
}

// NewRequest contains information needed to submit a workshop request.
type NewRequest struct {
	WorkshopName    string `json:"workshopName" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Topic           string `json:"topic" validate:"required"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"maxParticipants" validate:"omitempty,min=0"`
}

func (nr *NewRequest) Validate() error {
	nr.WorkshopName = core.CleanString(nr.WorkshopName)
	return core.Validate.Struct(nr)
}

// UpdateWorkshop defines what fields may be modified on a workshop; empty
// fields keep their current value.
type UpdateWorkshop struct {
	Name            string `json:"name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Location        string `json:"location"`
	Topic           string `json:"topic"`
	Description     string `json:"description"`
	Link            string `json:"link"`
	MaxParticipants *int   `json:"maxParticipants"`
	ClubCode        string `json:"clubCode"`
}
