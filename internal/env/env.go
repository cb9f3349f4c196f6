package env

import (
	"os"
	"path/filepath"
	"strings"
)

var Daemon bool = false

// 软件版本号，由构建参数注入
var Version string = "0.0.0"

// (default: $HOME/.cursor-keeper)
var KeeperDir string = GetKeeperDir()

/**
 * Get home directory, "." when it cannot be determined
 */
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "."
	}
	return homeDir
}

/**
 * Get cursor-keeper directory path
 * @returns {string} Returns directory holding the user level config file
 */
func GetKeeperDir() string {
	return filepath.Join(HomeDir(), ".cursor-keeper")
}

/**
 * Expand a leading "~" to the home directory
 * @param {string} path - Path from configuration
 * @returns {string} Cleaned path with "~" and "~/..." expanded
 */
func ExpandHome(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

// InPath reports whether dir is one of the entries of $PATH.
func InPath(dir string) bool {
	want := filepath.Clean(dir)
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if p == "" {
			continue
		}
		if filepath.Clean(ExpandHome(p)) == want {
			return true
		}
	}
	return false
}
