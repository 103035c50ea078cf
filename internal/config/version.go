package config

//
// version.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"fmt"
	"runtime/debug"
)

// set by ldflags on release builds
var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
	BuildUser = ""
	Branch    = ""

	VersionString = ""
)

func init() { //nolint:gochecknoinits
	if Version != "dev" {
		VersionString = fmt.Sprintf("Ver: %s, Rev: %s, Build: %s by %s from %s",
			Version, Revision, BuildDate, BuildUser, Branch)

		return
	}

	VersionString = Version

	// dev builds fall back to vcs stamp embedded by the toolchain
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var modified string

	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			Revision = kv.Value
		case "vcs.time":
			BuildDate = kv.Value
		case "vcs.modified":
			if kv.Value == "true" {
				modified = "(modified)"
			}
		}
	}

	VersionString = fmt.Sprintf("Rev: %s at %s %s", Revision, BuildDate, modified)
}
