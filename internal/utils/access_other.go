//go:build !unix

package utils

import "os"

// Writable reports whether dir exists; permission bits are not checked on this platform.
func Writable(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
