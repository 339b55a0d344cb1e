package main

import (
	"errors"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/export"
	"github.com/signbank/signbank/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	dictSvc  *dictionary.Service
	exporter *export.Exporter
	logger   core.Logger
	out      io.Writer
}

func (cl *commandLine) newApp() *cli.App {
	return &cli.App{
		Name:      "admin",
		Usage:     "Signbank administration commands.",
		Writer:    cl.out,
		ErrWriter: cl.out,
		Action: func(c *cli.Context) error {
			_ = cli.ShowAppHelp(c)
			return errHelp
		},
		Commands: []*cli.Command{
			{
				Name:            "migrate",
				Usage:           "run a goose migration command (up, up-to VERSION, down, status ...)",
				ArgsUsage:       "COMMAND [ARGS]",
				SkipFlagParsing: true,
				Action:          cl.migrateAction,
			},
			{
				Name:  "adduser",
				Usage: "create or update an active user; the password is prompted next",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "the user's username"},
					&cli.StringFlag{Name: "email", Usage: "the user's email"},
					&cli.BoolFlag{Name: "admin", Usage: "grant every role"},
					&cli.StringSliceFlag{Name: "role", Usage: "grant `ROLE` (researcher, editor or admin)"},
				},
				Action: cl.addUserAction,
			},
			{
				Name:  "resetpassword",
				Usage: "reset a user's password; the password is prompted next",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "the user's username or email"},
				},
				Action: cl.resetPasswordAction,
			},
			{
				Name:   "exportecv",
				Usage:  "rewrite the ECV file",
				Action: cl.exportECVAction,
			},
			{
				Name:  "package",
				Usage: "build the offline package, or a patch of the changes since a unix timestamp",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "since", Usage: "build a patch of the changes since `TIMESTAMP`"},
				},
				Action: cl.packageAction,
			},
			{
				Name:   "missingvideo",
				Usage:  "list the web glosses without a video",
				Action: cl.missingVideoAction,
			},
			{
				Name:   "linkvideos",
				Usage:  "link the unlinked files of the gloss video directory to their glosses",
				Action: cl.linkVideosAction,
			},
			{
				Name:  "addchoice",
				Usage: "add a field choice",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "field", Usage: "the choice field, e.g. handshape"},
					&cli.StringFlag{Name: "value", Usage: "the machine value"},
					&cli.StringFlag{Name: "name", Usage: "the english name"},
				},
				Action: cl.addChoiceAction,
			},
		},
	}
}

func (cl *commandLine) run(args []string) error {
	return cl.newApp().Run(args)
}

// usage shows the help of the running command.
func usage(c *cli.Context) error {
	_ = cli.ShowSubcommandHelp(c)
	return errHelp
}

func promptPassword(c *cli.Context) (string, error) {
	_, _ = io.WriteString(c.App.Writer, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = io.WriteString(c.App.Writer, "\n")
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
