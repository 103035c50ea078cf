// logging.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package cli

import (
	"fmt"
	"io"
	stdlog "log"
	"log/syslog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-poddir/internal/aerr"
)

// initializeLogger set global logger format and level.
func initializeLogger(level, format string) error {
	zerolog.ErrorMarshalFunc = aerr.ErrorMarshalFunc //nolint:reassign

	writer, err := newLogWriter(checkFormat(format))
	if err != nil {
		return err
	}

	log.Logger = log.Output(writer).With().Timestamp().Caller().Logger()

	if l, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(l)
	} else {
		log.Error().Msgf("logger: unknown log level %q; using debug", level)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)

	return nil
}

func newLogWriter(format string) (io.Writer, error) {
	switch format {
	case "json":
		return os.Stderr, nil

	case "syslog":
		syslogwriter, err := syslog.New(syslog.LOG_USER, "gopoddir")
		if err != nil {
			return nil, fmt.Errorf("init syslog error: %w", err)
		}

		return zerolog.SyslogLevelWriter(syslogwriter), nil

	case "journald":
		return journald.NewJournalDWriter(), nil

	case "logfmt": //nolint:goconst
		return newLogfmtConsoleWriter(), nil

	default: // (console)
		return newConsoleWriter(), nil
	}
}

// checkFormat check log format name. If is unknown or empty - set default according to output is on console or not.
func checkFormat(format string) string {
	switch format {
	case "json", "syslog", "journald", "logfmt", "console":
		return format
	}

	if format != "" {
		log.Error().Msgf("logger: unknown log format %q; using default", format)
	}

	if outputIsConsole() {
		return "console"
	}

	return "logfmt"
}

func newConsoleWriter() io.Writer {
	console := outputIsConsole()

	// log full datetime when log is written to file; skip date on console.
	tformat := time.RFC3339
	if console {
		tformat = time.TimeOnly
	}

	return zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:        os.Stderr,
		NoColor:    !console,
		TimeFormat: tformat,
	}
}

func outputIsConsole() bool {
	fileInfo, _ := os.Stderr.Stat()

	return fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0
}

// newLogfmtConsoleWriter configure logger to proper logfmt format (all fields are in form key=val).
func newLogfmtConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:             os.Stderr,
		NoColor:         true,
		TimeFormat:      time.RFC3339,
		FormatTimestamp: func(i any) string { return fmt.Sprintf("ts=%s", i) },
		FormatLevel: func(i any) string {
			if i == nil {
				return ""
			}

			return fmt.Sprintf("level=%s", i)
		},
		FormatMessage: func(i any) string {
			if i == nil {
				return "msg=<nil>"
			}

			return "msg=" + strconv.Quote(fmt.Sprintf("%s", i))
		},
		FormatCaller: func(i any) string {
			if i == nil {
				return "UNKNOWN"
			}

			c := fmt.Sprintf("%s", i)
			if strings.ContainsAny(c, " \"") {
				c = strconv.Quote(c)
			}

			return "caller=" + c
		},
		FormatErrFieldValue: func(i any) string {
			if i == nil {
				return "<nil>"
			}

			return strconv.Quote(fmt.Sprintf("%s", i))
		},
	}
}
