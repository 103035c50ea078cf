package cli

//
// maintenance.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"
	"gitlab.com/kabes/go-poddir/internal/service"
)

func newMaintenanceCmd() *cli.Command {
	return &cli.Command{
		Name:   "maintenance",
		Usage:  "clean up and compact database",
		Action: wrap(runMaintenance),
	}
}

func runMaintenance(ctx context.Context, _ *cli.Command, injector do.Injector) error {
	maintSrv := do.MustInvoke[*service.MaintenanceSrv](injector)

	if err := maintSrv.MaintainDatabase(ctx); err != nil {
		return fmt.Errorf("maintenance error: %w", err)
	}

	//nolint:forbidigo
	fmt.Println("Done")

	return nil
}
