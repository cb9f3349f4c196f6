package activation

import (
	"os"
	"strings"

	"github.com/spf13/afero"
)

// RewriteExec points every "Exec=" line at command, keeping the line's arguments.
// Other lines are returned unchanged.
func RewriteExec(content, command string) (string, bool) {
	lines := strings.SplitAfter(content, "\n")
	updated := false
	for i, line := range lines {
		if !strings.HasPrefix(line, "Exec=") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "Exec="))
		newLine := "Exec=" + command
		if len(fields) > 1 {
			newLine += " " + strings.Join(fields[1:], " ")
		}
		lines[i] = newLine + "\n"
		updated = true
	}
	return strings.Join(lines, ""), updated
}

// ExecCommand returns the command part of the first "Exec=" line.
func ExecCommand(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "Exec=") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "Exec="))
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	return "", false
}

// syncLauncher rewrites the launcher descriptor to run the pointer; a missing file is not an error.
func (e *Engine) syncLauncher() (bool, error) {
	info, err := e.fs.Stat(e.launcher)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	data, err := afero.ReadFile(e.fs, e.launcher)
	if err != nil {
		return false, err
	}
	content, updated := RewriteExec(string(data), e.pointer)
	if !updated || content == string(data) {
		return false, nil
	}
	return true, afero.WriteFile(e.fs, e.launcher, []byte(content), info.Mode().Perm())
}

// LauncherCommand reads the command the launcher descriptor runs.
func (e *Engine) LauncherCommand() (string, bool) {
	data, err := afero.ReadFile(e.fs, e.launcher)
	if err != nil {
		return "", false
	}
	return ExecCommand(string(data))
}
