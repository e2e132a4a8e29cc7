package version

import (
	"fmt"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

func AsString() string {
	return ToString(uint16(VersionMajor), uint16(VersionMinor), uint16(VersionPatch))
}

func ToString(major, minor, patch uint16) string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
