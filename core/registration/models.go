package registration

import (
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/approval"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

// Type discriminates who may decide a request: admin requests go to the
// system admin, member requests to the club's admin.
type Type string

const (
	TypeAdmin  Type = "admin"
	TypeMember Type = "member"
)

// Approver identifies the deciding authority level.
type Approver string

const (
	ApproverSystemAdmin Approver = "systemAdmin"
	ApproverClubAdmin   Approver = "clubAdmin"
)

// Request is a pending account registration. It is immutable once it
// reaches a terminal status.
type Request struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash []byte          `json:"-"`
	Roles        []user.Role     `json:"roles"`
	ClubCode     string          `json:"clubCode"`
	Status       approval.Status `json:"status"`
	Type         Type            `json:"requestType"`
	TargetEmail  string          `json:"-"` // where the request notice was sent
	ApprovedBy   string          `json:"approvedBy,omitempty"` // also records rejectedBy
	ApprovedAt   *time.Time      `json:"approvedAt,omitempty"`
	RejectReason string          `json:"rejectionReason,omitempty"`
	EmailSent    bool            `json:"emailSent"`
	EmailSentAt  *time.Time      `json:"emailSentAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"` // UTC
	UpdatedAt    time.Time       `json:"updatedAt"` // UTC
}

// NewRequest contains information needed to submit a registration request.
type NewRequest struct {
	Username string    `json:"username" validate:"required,min=4,alphanum_"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=6"`
	Role     user.Role `json:"role" validate:"required,oneof=admin clubMember"`
	ClubCode string    `json:"clubCode" validate:"required,alphanum_"`
}

func (nr *NewRequest) Validate() error {
	nr.Username = core.CleanString(nr.Username, true /* lower */)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.ClubCode = core.CleanString(nr.ClubCode, true /* lower */)
	return core.Validate.Struct(nr)
}

// RequestType maps the requested role onto the deciding authority.
func (nr NewRequest) RequestType() Type {
	if nr.Role == user.RoleAdmin {
		return TypeAdmin
	}
	return TypeMember
}
