//
// change_user_pass.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/service"
	"golang.org/x/term"
)

//---------------------------------------------------------------------

func newChangeUserPasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "set new user password / unlock account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}},
		},
		Action: wrap(runChangePassword),
	}
}

func runChangePassword(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	pass := strings.TrimSpace(clicmd.String("password"))
	if pass == "" {
		var err error

		pass, err = promptPassword()
		if err != nil {
			return err
		}
	}

	username := clicmd.String("username")
	usersrv := do.MustInvoke[*service.UsersSrv](injector)

	cmd := command.ChangeUserPasswordCmd{
		Username:         username,
		Password:         pass,
		CurrentPassword:  "",
		CheckCurrentPass: false,
	}
	if err := usersrv.ChangePassword(ctx, &cmd); err != nil {
		return fmt.Errorf("change user password error: %w", err)
	}

	//nolint:forbidigo
	fmt.Printf("Changed password for user %q\n", username)

	return nil
}

// promptPassword read password from terminal without echo.
func promptPassword() (string, error) {
	//nolint:forbidigo
	fmt.Print("Enter new password: ")

	bytepw, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", fmt.Errorf("read password error: %w", err)
	}

	pass := strings.TrimSpace(string(bytepw))
	if pass == "" {
		return "", errors.New("password can't be empty") //nolint:err113
	}

	return pass, nil
}

//---------------------------------------------------------------------

func newLockUserCmd() *cli.Command {
	return &cli.Command{
		Name:  "lock",
		Usage: "lock user account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
		},
		Action: wrap(runLockUser),
	}
}

func runLockUser(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	usersrv := do.MustInvoke[*service.UsersSrv](injector)
	username := clicmd.String("username")

	if err := usersrv.LockAccount(ctx, command.LockAccountCmd{Username: username}); err != nil {
		return fmt.Errorf("lock user account error: %w", err)
	}

	//nolint:forbidigo
	fmt.Printf("User %q locked\n", username)

	return nil
}
