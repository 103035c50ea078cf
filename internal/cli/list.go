//
// list.go
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
	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/model"
	"gitlab.com/kabes/go-poddir/internal/query"
	"gitlab.com/kabes/go-poddir/internal/service"
)

const ListSupportedObjects = "devices, subs"

func newListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list user objects.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true, Aliases: []string{"u"}},
			&cli.StringFlag{
				Name:     "object",
				Required: true,
				Usage:    "object to list (" + ListSupportedObjects + ")",
				Aliases:  []string{"o"},
			},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "limit subs to one device"},
			&cli.BoolFlag{Name: "deleted", Usage: "include deleted devices"},
		},
		Action: wrap(runList),
	}
}

func runList(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	switch object := clicmd.String("object"); object {
	case "devices":
		return runListDevices(ctx, clicmd, injector)
	case "subs":
		return runListSubscriptions(ctx, clicmd, injector)

	default:
		return aerr.ErrValidation.WithUserMsg("unknown object for query %q", object)
	}
}

//nolint:forbidigo
func runListDevices(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	devsrv := do.MustInvoke[*service.DevicesSrv](injector)

	devices, err := devsrv.GetDevices(ctx, &query.GetDevicesQuery{
		UserName:    clicmd.String("username"),
		WithDeleted: clicmd.Bool("deleted"),
	})
	if err != nil {
		return fmt.Errorf("get device list error: %w", err)
	}

	rowfmt := "%-30s | %-10s | %-30s | %13v | %s \n"

	fmt.Printf(rowfmt, "Name", "Type", "Caption", "Subscriptions", "")
	fmt.Println("--------------------------------------------------------------------------------------------")

	for _, d := range devices {
		status := ""
		if d.Deleted {
			status = "DELETED"
		}

		fmt.Printf(rowfmt, d.Name, d.DevType, d.Caption, d.Subscriptions, status)
	}

	return nil
}

//nolint:forbidigo
func runListSubscriptions(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	subssrv := do.MustInvoke[*service.SubscriptionsSrv](injector)

	subs, err := fetchSubscriptions(ctx, subssrv, clicmd.String("username"), clicmd.String("device"))
	if err != nil {
		return fmt.Errorf("get subscriptions list error: %w", err)
	}

	for _, s := range subs {
		fmt.Println(s.URL)
	}

	fmt.Printf("\nTotal: %d\n", len(subs))

	return nil
}

// fetchSubscriptions load projected subscriptions of one device or the whole
// user account when devicename is empty.
func fetchSubscriptions(ctx context.Context, subssrv *service.SubscriptionsSrv,
	username, devicename string,
) (model.Podcasts, error) {
	if devicename == "" {
		//nolint:wrapcheck
		return subssrv.GetUserSubscriptions(ctx, &query.GetUserSubscriptionsQuery{UserName: username})
	}

	//nolint:wrapcheck
	return subssrv.GetDeviceSubscriptions(ctx,
		&query.GetSubscriptionsQuery{UserName: username, DeviceName: devicename})
}
