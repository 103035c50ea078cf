package cli

//
// user.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func userCommands() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage users",
		Commands: []*cli.Command{
			newAddUserCmd(),
			newDeleteUsersCmd(),
			newListUsersCmd(),
			newLockUserCmd(),
			newChangeUserPasswordCmd(),
		},
	}
}

//---------------------------------------------------------------------

func newAddUserCmd() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "add new user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{Name: "password", Required: true, Aliases: []string{"p"}},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}},
		},
		Action: wrap(runAddUser),
	}
}

//nolint:forbidigo
func runAddUser(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	usersrv := do.MustInvoke[*service.UsersSrv](injector)

	username := clicmd.String("username")
	cmd := command.NewUserCmd{
		Username: username,
		Password: clicmd.String("password"),
		Email:    clicmd.String("email"),
		Name:     clicmd.String("name"),
	}

	res, err := usersrv.AddUser(ctx, &cmd)
	if err != nil {
		return fmt.Errorf("add user error: %w", err)
	}

	if res.UserID == 0 {
		fmt.Printf("Create user failed\n")

		return nil
	}

	fmt.Printf("User %q created; id: %d\n", username, res.UserID)

	return nil
}

// ---------------------------------------------------------------------

func newListUsersCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list user accounts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "active-only", Usage: "show active only accounts", Aliases: []string{"a"}},
		},
		Action: wrap(runListUsers),
	}
}

//nolint:forbidigo
func runListUsers(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	usersrv := do.MustInvoke[*service.UsersSrv](injector)

	users, err := usersrv.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("get users error: %w", err)
	}

	activeOnly := clicmd.Bool("active-only")
	rowfmt := "%-30s | %-30s | %-30s | %s \n"

	fmt.Printf(rowfmt, "User name", "Name", "Email", "Status")
	fmt.Println(
		"---------------------------------------------------------------------------------------------------------",
	)

	for _, u := range users {
		switch {
		case u.Locked && activeOnly:
			continue
		case u.Locked:
			fmt.Printf(rowfmt, u.UserName, u.Name, u.Email, "LOCKED")
		default:
			fmt.Printf(rowfmt, u.UserName, u.Name, u.Email, "")
		}
	}

	return nil
}

// ---------------------------------------------------------------------

func newDeleteUsersCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "delete user account with all devices and subscriptions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
		},
		Action: wrap(runDeleteUser),
	}
}

func runDeleteUser(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	usersrv := do.MustInvoke[*service.UsersSrv](injector)
	username := clicmd.String("username")

	if err := usersrv.DeleteUser(ctx, &command.DeleteUserCmd{Username: username}); err != nil {
		return fmt.Errorf("delete user error: %w", err)
	}

	//nolint:forbidigo
	fmt.Printf("User %s deleted\n", username)

	return nil
}
