package validators

//
// devices.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"regexp"
	"slices"
)

// ValidDevTypes list device types accepted on registration.
var ValidDevTypes = []string{"desktop", "laptop", "mobile", "server", "other"}

func IsValidDevType(deviceType string) bool {
	return slices.Contains(ValidDevTypes, deviceType)
}

// device name charset match url route pattern
var reDevName = regexp.MustCompile(`^[\w.-]+$`)

func IsValidDevName(name string) bool {
	return reDevName.MatchString(name)
}
