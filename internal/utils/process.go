package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/**
 *	One row of the process table
 */
type ProcessEntry struct {
	Pid     int
	Command string
}

// ProcessLister reads the process table.
type ProcessLister interface {
	List(ctx context.Context) ([]ProcessEntry, error)
}

/**
 *	Process lister backed by `ps -e -o pid,command`
 */
type PSLister struct {
	Timeout time.Duration
	runner  CommandRunner
}

func NewPSLister(timeout time.Duration) *PSLister {
	return &PSLister{Timeout: timeout, runner: ExecRunner{}}
}

/**
 * List processes
 * @param {context.Context} ctx - Parent context, further bounded by Timeout
 * @returns {[]ProcessEntry, error} Parsed rows, error when ps fails or times out
 * @description
 * - Uses the command column rather than comm so long paths are not truncated
 * - Same ps form on Linux and Darwin
 */
func (l *PSLister) List(ctx context.Context) ([]ProcessEntry, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	output, err := l.runner.Run(ctx, "", "ps", "-e", "-o", "pid,command")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return ParseProcessTable(string(output)), nil
}

/**
 * Parse `ps -e -o pid,command` output
 * @param {string} output - Raw ps output
 * @returns {[]ProcessEntry} Rows with a numeric pid; header and blank lines skipped
 */
func ParseProcessTable(output string) []ProcessEntry {
	var entries []ProcessEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// 跳过标题行
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		cmd := strings.TrimSpace(line[len(fields[0]):])
		entries = append(entries, ProcessEntry{Pid: pid, Command: cmd})
	}
	return entries
}

/**
 * Find the first command line token that names a product artifact
 * @param {[]ProcessEntry} entries - Process table rows
 * @param {string} product - Product name, matched case-insensitively
 * @param {string} ext - Artifact extension, matched as a suffix
 * @param {func(string) bool} exists - Filter for tokens that exist on disk
 * @returns {string, bool} Matching token as it appeared on the command line
 * @description
 * - Pure query over the table, no handle to the process is kept
 */
func FindArtifactInProcesses(entries []ProcessEntry, product, ext string, exists func(string) bool) (string, bool) {
	product = strings.ToLower(product)
	for _, e := range entries {
		lower := strings.ToLower(e.Command)
		if !strings.Contains(lower, product) || !strings.Contains(e.Command, ext) {
			continue
		}
		for _, token := range strings.Fields(e.Command) {
			if !strings.HasSuffix(token, ext) || !strings.Contains(strings.ToLower(token), product) {
				continue
			}
			if exists == nil || exists(token) {
				return token, true
			}
		}
	}
	return "", false
}
