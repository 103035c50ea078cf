package cli

//
// main.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//
import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/config"
)

func Main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "print-version",
		Aliases: []string{"V"},
		Usage:   "Print version.",
	}

	app := &cli.Command{
		Name:    "go-poddir",
		Version: config.VersionString,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			newStartServerCmd(),
			newListCmd(),
			databaseCommands(),
			userCommands(),
			deviceCommands(),
			podcastCommands(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		reportRunError(app, err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "database",
			Value:     "database.sqlite?_fk=1&_journal_mode=WAL&_synchronous=NORMAL",
			Usage:     "Database file or connection string",
			Aliases:   []string{"D"},
			Sources:   cli.EnvVars("GOPODDIR_DB"),
			Validator: dbConnstrValidator,
			Config:    cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "db.driver",
			Value:   config.DriverSQLite,
			Usage:   "Database driver (sqlite3, pgx)",
			Sources: cli.EnvVars("GOPODDIR_DBDRIVER"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "log.level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("GOPODDIR_LOGLEVEL"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "log.format",
			Value:   "console",
			Usage:   "Log format (console, logfmt, json, journald, syslog)",
			Sources: cli.EnvVars("GOPODDIR_LOGFORMAT"),
			Config:  cli.StringConfig{TrimSpace: true},
		},
		&cli.StringFlag{
			Name:    "debug",
			Usage:   "Debug flags (logbody,do,go,router,querymetrics,flightrecorder,trace,all)",
			Sources: cli.EnvVars("GOPODDIR_DEBUG"),
		},
	}
}

//nolint:forbidigo
func reportRunError(app *cli.Command, err error) {
	if h := aerr.GetUserMessage(err); h != "" {
		fmt.Printf("Error: %s\n", h)
	} else {
		fmt.Printf("Error: %s\n", err.Error())
	}

	if app.String("log.level") == "debug" {
		fmt.Printf("Error: %#+v\n", err)
	}
}

func dbConnstrValidator(connstr string) error {
	if connstr == "" {
		return aerr.New("database connection string cannot be empty")
	}

	return nil
}
