package main

import (
	"github.com/urfave/cli/v2"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/user"
)

func (cl *commandLine) resetPasswordAction(c *cli.Context) error {
	uname := c.String("username")
	if uname == "" {
		return usage(c)
	}
	pwd, err := promptPassword(c)
	if err != nil {
		return err
	}
	if pwd == "" {
		return usage(c)
	}
	return cl.resetPassword(c, uname, pwd)
}

func (cl *commandLine) resetPassword(c *cli.Context, uname, pwd string) error {
	usr, err := cl.usrRepo.GetUser(c.Context, user.GetFilter{UsernameOrEmail: []string{core.CleanString(uname, true /* lower */)}})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = core.NowFunc()
	_, err = cl.usrRepo.UpdateUser(c.Context, usr)
	return err
}
