//
// device.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

package cli

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/command"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func deviceCommands() *cli.Command {
	return &cli.Command{
		Name:  "device",
		Usage: "manage devices",
		Commands: []*cli.Command{
			newUpdateDeviceCmd(),
			newDeleteDeviceCmd(),
			newListDeviceCmd(),
		},
	}
}

//---------------------------------------------------------------------

func newUpdateDeviceCmd() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "register device or change existing one; also restore deleted device",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{Name: "device", Required: true, Aliases: []string{"d"}},
			&cli.StringFlag{
				Name: "type", Aliases: []string{"t"}, Value: "mobile",
				Usage: "device type (desktop, laptop, mobile, server, other)",
			},
			&cli.StringFlag{Name: "caption", Aliases: []string{"c"}},
		},
		Action: wrap(runUpdateDevice),
	}
}

func runUpdateDevice(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	devsrv := do.MustInvoke[*service.DevicesSrv](injector)

	cmd := command.UpdateDeviceCmd{
		UserName:   clicmd.String("username"),
		DeviceName: clicmd.String("device"),
		DeviceType: clicmd.String("type"),
		Caption:    clicmd.String("caption"),
	}
	if err := devsrv.UpdateDevice(ctx, &cmd); err != nil {
		return fmt.Errorf("update device error: %w", err)
	}

	//nolint:forbidigo
	fmt.Println("Device updated")

	return nil
}

//---------------------------------------------------------------------

func newDeleteDeviceCmd() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "delete device; subscription log is kept",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{Name: "device", Required: true, Aliases: []string{"d"}},
		},
		Action: wrap(runDeleteDevice),
	}
}

func runDeleteDevice(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	devsrv := do.MustInvoke[*service.DevicesSrv](injector)

	cmd := command.DeleteDeviceCmd{
		UserName:   clicmd.String("username"),
		DeviceName: clicmd.String("device"),
	}
	if err := devsrv.DeleteDevice(ctx, &cmd); err != nil {
		return fmt.Errorf("delete device error: %w", err)
	}

	//nolint:forbidigo
	fmt.Println("Device deleted")

	return nil
}

//---------------------------------------------------------------------

func newListDeviceCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list devices",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.BoolFlag{Name: "deleted", Usage: "include deleted devices"},
		},
		Action: wrap(runListDevices),
	}
}
