package probe

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
)

const (
	scanChunkSize = 64 * 1024
	maxValueLen   = 256
)

// versionFromBytes is the last resort: look for the desktop version key anywhere in the
// artifact's bytes. It depends on the key being stored uncompressed and is easily fooled.
func (p *Probe) versionFromBytes(ctx context.Context, path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	ctx, cancel := context.WithTimeout(ctx, p.settings.ProcessTimeout)
	defer cancel()
	return scanVersionString(ctx, f)
}

/**
 * Stream r looking for "X-AppImage-Version=<value>"
 * @returns {string, bool} Value up to the first non-printable byte
 * @description
 * - Handles markers and values split across read chunks
 * - Stops with no result once ctx is done
 */
func scanVersionString(ctx context.Context, r io.Reader) (string, bool) {
	marker := []byte(desktopVersionKey + "=")
	buf := make([]byte, scanChunkSize)
	var window []byte
	for {
		if ctx.Err() != nil {
			return "", false
		}
		n, err := r.Read(buf)
		window = append(window, buf[:n]...)
		for {
			i := bytes.Index(window, marker)
			if i < 0 {
				if keep := len(marker) - 1; len(window) > keep {
					window = append(window[:0], window[len(window)-keep:]...)
				}
				break
			}
			rest := window[i+len(marker):]
			end := printableRun(rest)
			if end == len(rest) && end < maxValueLen && err == nil {
				// value may continue in the next chunk
				window = append(window[:0], window[i:]...)
				break
			}
			if end > maxValueLen {
				end = maxValueLen
			}
			if v := strings.TrimSpace(string(rest[:end])); v != "" {
				return v, true
			}
			window = append(window[:0], rest[end:]...)
		}
		if err != nil {
			return "", false
		}
	}
}

func printableRun(b []byte) int {
	for i, c := range b {
		if c != '\t' && (c < 0x20 || c > 0x7e) {
			return i
		}
	}
	return len(b)
}
