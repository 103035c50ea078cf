package cli

//
// database.go
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

func databaseCommands() *cli.Command {
	return &cli.Command{
		Name:  "database",
		Usage: "manage database",
		Commands: []*cli.Command{
			newMigrateCmd(),
			newMaintenanceCmd(),
			newRefreshStatsCmd(),
			newRebuildIndexCmd(),
		},
	}
}

//---------------------------------------------------------------------

func newRefreshStatsCmd() *cli.Command {
	return &cli.Command{
		Name:  "refresh-stats",
		Usage: "recalculate podcast subscriber counters",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "week-shift",
				Usage: "preserve current counters as last week base before recalculation",
			},
		},
		Action: wrap(runRefreshStats),
	}
}

func runRefreshStats(ctx context.Context, clicmd *cli.Command, injector do.Injector) error {
	statsSrv := do.MustInvoke[*service.StatsSrv](injector)

	if err := statsSrv.RefreshStats(ctx, clicmd.Bool("week-shift")); err != nil {
		return fmt.Errorf("refresh stats error: %w", err)
	}

	//nolint:forbidigo
	fmt.Println("Stats refreshed")

	return nil
}

//---------------------------------------------------------------------

func newRebuildIndexCmd() *cli.Command {
	return &cli.Command{
		Name:  "rebuild-index",
		Usage: "rebuild full text search index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "search-index",
				Usage:     "path to bleve search index",
				Required:  true,
				Sources:   cli.EnvVars("GOPODDIR_SEARCH_INDEX"),
				Config:    cli.StringConfig{TrimSpace: true},
				TakesFile: true,
			},
		},
		Action: wrap(runRebuildIndex),
	}
}

func runRebuildIndex(ctx context.Context, _ *cli.Command, injector do.Injector) error {
	podcastsSrv := do.MustInvoke[*service.PodcastsSrv](injector)

	cnt, err := podcastsSrv.RebuildSearchIndex(ctx)
	if err != nil {
		return fmt.Errorf("rebuild index error: %w", err)
	}

	//nolint:forbidigo
	fmt.Printf("Indexed %d podcasts\n", cnt)

	return nil
}
