package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
)

// addAdmin updates or creates an admin account. An existing account is
// promoted and reactivated.
func (cli *commandLine) addAdmin(uname, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Username:      uname,
			Email:         email,
			Role:          user.RoleAdmin,
			FirstName:     "Admin",
			LastName:      uname,
			EmailVerified: true,
			Activated:     true,
			CreatedAt:     now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.UpdatedAt = now
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Role = user.RoleAdmin
	usr.Activated = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
