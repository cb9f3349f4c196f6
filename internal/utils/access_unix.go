//go:build unix

package utils

import "golang.org/x/sys/unix"

// Writable reports whether the current user may create entries in dir.
func Writable(dir string) bool {
	return unix.Access(dir, unix.W_OK) == nil
}
