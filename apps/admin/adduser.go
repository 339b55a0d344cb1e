package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/user"
)

func (cl *commandLine) addUserAction(c *cli.Context) error {
	uname := core.CleanString(c.String("username"), true /* lower */)
	email := core.CleanString(c.String("email"), true /* lower */)
	if uname == "" && email == "" {
		return usage(c)
	}

	var roles []string
	if c.Bool("admin") {
		roles = user.AllRoles
	} else {
		for _, role := range c.StringSlice("role") {
			if !strings.HasSuffix(role, ":") {
				role += ":"
			}
			if user.RolePriority(role) == 0 {
				return fmt.Errorf("unknown role %q", strings.TrimSuffix(role, ":"))
			}
			roles = append(roles, role)
		}
	}

	pwd, err := promptPassword(c)
	if err != nil {
		return err
	}
	if pwd == "" {
		return usage(c)
	}
	usr, err := cl.addUser(c, uname, email, pwd, roles)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "user %q saved\n", usr.Username)
	return nil
}

// addUser updates or creates an active user.User
func (cl *commandLine) addUser(c *cli.Context, uname, email, pwd string, roles []string) (user.User, error) {
	filter := user.GetFilter{}
	for _, s := range []string{uname, email} {
		if s != "" {
			filter.UsernameOrEmail = append(filter.UsernameOrEmail, s)
		}
	}

	now := core.NowFunc()
	usr, err := cl.usrRepo.GetUser(c.Context, filter)
	exists := err == nil
	if err != nil {
		if err != user.ErrNotFound {
			return user.User{}, err
		}
		usr = user.User{Name: uname, Username: uname, Email: email, CreatedAt: now}
	}
	if roles != nil {
		usr.Roles = roles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}
	if exists {
		return cl.usrRepo.UpdateUser(c.Context, usr)
	}
	return cl.usrRepo.CreateUser(c.Context, usr)
}
