//go:build darwin

// Package osver reports the host OS version.
package osver

import (
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	cachedVersion Version
	initOnce      sync.Once
)

// Version represents a macOS version with major, minor, and patch components.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String returns the string representation of a Version.
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Get returns the current macOS system version.
// The version is retrieved once and cached for subsequent calls.
func Get() Version {
	initOnce.Do(func() {
		out, err := exec.Command("/usr/bin/sw_vers", "-productVersion").Output()
		if err != nil {
			logrus.WithError(err).Debug("sw_vers failed, assuming version 0.0.0")
			return
		}
		cachedVersion = parse(strings.TrimSpace(string(out)))
	})
	return cachedVersion
}

// IsAtLeast reports whether the system version is at least the given one.
// An unknown version passes the check rather than blocking startup.
func IsAtLeast(major, minor, patch int) bool {
	v := Get()
	if v == (Version{}) {
		return true
	}
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

func parse(s string) Version {
	parts := strings.SplitN(s, ".", 3)
	var v Version
	if len(parts) > 0 {
		v.Major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		v.Minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		v.Patch, _ = strconv.Atoi(parts[2])
	}
	return v
}
