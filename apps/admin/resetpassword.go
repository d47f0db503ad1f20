package main

import (
	"context"
	"time"

	"github.com/WMS-GIETU/WorkshopMS/core"
	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

func (cli *commandLine) resetPassword(uname, clubCode, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	clubCode = core.CleanString(clubCode, true /* lower */)

	var usr user.User
	var err error
	if clubCode != "" {
		usr, err = cli.usrRepo.GetUserByUsernameAndClub(ctx, uname, clubCode)
	} else {
		usr, err = cli.usrRepo.GetUserByUsername(ctx, uname)
	}
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
