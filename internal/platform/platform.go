package platform

import (
	"runtime"
	"strings"
)

// Key is the platform tag used by the remote manifest, e.g. "linux-x64".
type Key string

const (
	LinuxX64   Key = "linux-x64"
	LinuxArm64 Key = "linux-arm64"

	// Baseline is used for architectures missing from the table.
	Baseline = LinuxX64
)

var archTable = map[string]Key{
	"amd64":   LinuxX64,
	"x86_64":  LinuxX64,
	"arm64":   LinuxArm64,
	"aarch64": LinuxArm64,
}

// FromArch maps a Go or uname-style architecture name to a manifest key.
func FromArch(arch string) Key {
	if k, ok := archTable[strings.ToLower(strings.TrimSpace(arch))]; ok {
		return k
	}
	return Baseline
}

/**
 * Resolve platform key for the current host
 * @param {string} override - Explicit key or architecture name from configuration, may be empty
 * @returns {Key} Manifest platform key
 * @description
 * - An override that already looks like a key ("linux-arm64") is used verbatim
 * - An override that names an architecture goes through the table
 * - Without an override, runtime.GOARCH is used
 */
func Current(override string) Key {
	override = strings.TrimSpace(override)
	if override == "" {
		return FromArch(runtime.GOARCH)
	}
	if strings.Contains(override, "-") {
		return Key(override)
	}
	return FromArch(override)
}
