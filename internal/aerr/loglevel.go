package aerr

// loglevel.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.

import "github.com/rs/zerolog"

// LogLevelForError map error to log level; errors caused by client input
// are logged on info level, internal problems on error level.
func LogLevelForError(err error) zerolog.Level {
	switch {
	case err == nil:
		return zerolog.DebugLevel
	case HasTag(err, InternalError):
		return zerolog.ErrorLevel
	case HasTag(err, ValidationError), HasTag(err, DataError):
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}
