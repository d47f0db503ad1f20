package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/WMS-GIETU/WorkshopMS/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("User not found.")
	ErrUserExists         = core.NewDuplicateError("A user with this username or email already exists for this club.")
	ErrAdminExists        = core.NewDuplicateError("An admin already exists for this club. Only one admin is allowed per club.")
	ErrRollNoExists       = core.NewDuplicateError("A student with this roll number already exists.")
	ErrInvalidCredentials = core.NewValidationError(errors.New("Invalid credentials"))
	ErrInvalidOTP         = core.NewValidationError(errors.New("Invalid or expired OTP"))
)

type (
	// Repository persists users. Implementations must enforce the
	// one-admin-per-club and identity-per-club invariants atomically at
	// write time, not by check-then-act.
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByUsernameAndClub(ctx context.Context, username, clubCode string) (User, error)
		// GetUserByIdentity matches username or email, scoped to clubCode
		// (global when clubCode is empty), holding the given role.
		GetUserByIdentity(ctx context.Context, username, email, clubCode string, role Role) (User, error)
		GetAdminByClub(ctx context.Context, clubCode string) (User, error)
		FilterUsersByClub(ctx context.Context, clubCode string) ([]User, error)
		AddUserRoles(ctx context.Context, id string, roles ...Role) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	// OTPStore keeps short-lived one-time passwords keyed by email.
	OTPStore interface {
		SetOTP(ctx context.Context, email, code string, ttl time.Duration) error
		GetOTP(ctx context.Context, email string) (string, error)
		DeleteOTP(ctx context.Context, email string) error
	}

	Service struct {
		repo    Repository
		otps    OTPStore
		mailSvc core.EmailService
		log     core.Logger
	}
)

func NewService(repo Repository, otps OTPStore, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, otps: otps, mailSvc: mailSvc, log: log}
}

func (svc *Service) Repo() Repository { return svc.repo }

// Authenticate checks credentials and returns the matching user.
// Club accounts are looked up by username+clubCode, students by username.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	var usr User
	var err error
	if creds.ClubCode != "" {
		usr, err = svc.repo.GetUserByUsernameAndClub(ctx, creds.Username, creds.ClubCode)
	} else {
		usr, err = svc.repo.GetUserByUsername(ctx, creds.Username)
	}
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

// ClubAdmin returns the admin of the given club, if any.
func (svc *Service) ClubAdmin(ctx context.Context, clubCode string) (User, bool, error) {
	usr, err := svc.repo.GetAdminByClub(ctx, core.CleanString(clubCode, true /* lower */))
	if err != nil {
		if _, ok := err.(*core.NotFoundError); ok {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return usr, true, nil
}

func (svc *Service) ListClubUsers(ctx context.Context, clubCode string) ([]User, error) {
	return svc.repo.FilterUsersByClub(ctx, clubCode)
}

// Update edits the username/email of an existing user.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if uu.Username != "" {
		usr.Username = uu.Username
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

// ResetPassword sets a new password for the user matching username (+club).
func (svc *Service) ResetPassword(ctx context.Context, username, clubCode, pwd string) error {
	var usr User
	var err error
	if clubCode != "" {
		usr, err = svc.repo.GetUserByUsernameAndClub(ctx, core.CleanString(username, true), core.CleanString(clubCode, true))
	} else {
		usr, err = svc.repo.GetUserByUsername(ctx, core.CleanString(username, true))
	}
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// SendStudentOTP mails a fresh OTP to the given address and stores it for
// later verification.
func (svc *Service) SendStudentOTP(ctx context.Context, email string) error {
	email = core.CleanString(email, true /* lower */)
	code, err := generateOTP()
	if err != nil {
		return errors.Wrap(err, "generating OTP")
	}
	if err := svc.otps.SetOTP(ctx, email, code, core.Conf.OTPExpirationDelta); err != nil {
		return errors.Wrap(err, "storing OTP")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "Your verification code",
		TemplateName: core.TemplateStudentOTP,
		TemplateData: map[string]interface{}{
			"OTP":     code,
			"Minutes": int(core.Conf.OTPExpirationDelta.Minutes()),
		},
	}
	if _, err := svc.mailSvc.Send(msg); err != nil {
		return errors.Wrap(err, "sending OTP email")
	}
	return nil
}

// RegisterStudent verifies the submitted OTP and creates the student account.
func (svc *Service) RegisterStudent(ctx context.Context, ns NewStudent) (User, error) {
	code, err := svc.otps.GetOTP(ctx, ns.Email)
	if err != nil || code != ns.OTP {
		return User{}, ErrInvalidOTP
	}

	now := time.Now().UTC()
	usr := User{
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		RollNo:    ns.RollNo,
		Roles:     []Role{RoleStudent},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(ns.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if err := svc.otps.DeleteOTP(ctx, ns.Email); err != nil {
		svc.log.Warn(fmt.Sprintf("deleting used OTP for %s: %v", ns.Email, err))
	}
	return usr, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
