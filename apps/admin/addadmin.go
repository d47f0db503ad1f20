package main

import (
	"context"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

// addAdmin creates a club admin directly, for bootstrapping a club before
// the registration approval flow has anyone to decide it. The storage
// layer's one-admin-per-club constraint still applies.
func (cli *commandLine) addAdmin(uname, email, clubCode, pwd string) error {
	ctx := context.Background()
	now := time.Now().UTC()

	usr := user.User{
		Username:  core.CleanString(uname, true /* lower */),
		Email:     core.CleanString(email, true /* lower */),
		Roles:     []user.Role{user.RoleAdmin},
		ClubCode:  core.CleanString(clubCode, true /* lower */),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err := cli.usrRepo.CreateUser(ctx, usr)
	return err
}
