package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/WMS-GIETU/WorkshopMS/core"
)

// Role is an enumerated capability. A user's permissions are the set of
// roles they hold; authorization is expressed as set membership, never as
// ad hoc string checks.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClubMember Role = "clubMember"
	RoleStudent    Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleClubMember, RoleStudent}

// HasRole reports whether r is in roles.
func HasRole(roles []Role, r Role) bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether roles and required intersect.
// An empty required set matches everyone.
func HasAnyRole(roles []Role, required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		if HasRole(roles, req) {
			return true
		}
	}
	return false
}

// MergeRoles appends the roles from extra that are not already in roles.
func MergeRoles(roles []Role, extra ...Role) []Role {
	for _, r := range extra {
		if !HasRole(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Roles        []Role    `json:"roles"`
	ClubCode     string    `json:"clubCode,omitempty"` // empty for student-only accounts
	Name         string    `json:"name,omitempty"`
	RollNo       string    `json:"rollNo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return HasRole(u.Roles, RoleAdmin) }
func (u *User) IsClubMember() bool { return HasRole(u.Roles, RoleClubMember) }
func (u *User) IsStudent() bool    { return HasRole(u.Roles, RoleStudent) }

// Credentials is a login payload. ClubCode is required for admin and club
// member portals; students log in by username alone.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	ClubCode string `json:"clubCode"`
}

func (c *Credentials) Validate() error {
	c.Username = core.CleanString(c.Username, true /* lower */)
	c.ClubCode = core.CleanString(c.ClubCode, true /* lower */)
	return core.Validate.Struct(c)
}

// NewStudent contains information needed to self-register a student account.
// The OTP must match the one previously mailed to the student's email.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=4,alphanum_"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RollNo   string `json:"rollNo" validate:"required"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNo = core.CleanString(ns.RollNo, true /* lower */)
	return core.Validate.Struct(ns)
}

// UpdateUser defines the fields an admin may edit on a club user.
type UpdateUser struct {
	Username string `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (uu *UpdateUser) Validate() error {
	uu.Username = core.CleanString(uu.Username, true /* lower */)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	return core.Validate.Struct(uu)
}
