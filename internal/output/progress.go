package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

/**
 * Download progress line
 * @description
 * - Redrawn in place with "\r", only when the writer is a terminal
 * - Silent otherwise so logs and pipes stay clean
 */
type Progress struct {
	w       io.Writer
	label   string
	enabled bool
	drawn   bool
}

func NewProgress(label string) *Progress {
	return newProgress(os.Stdout, label, !JSONMode && term.IsTerminal(int(os.Stdout.Fd())))
}

func newProgress(w io.Writer, label string, enabled bool) *Progress {
	return &Progress{w: w, label: label, enabled: enabled}
}

// Update matches store.ProgressFunc.
func (p *Progress) Update(downloaded, total int64) {
	if !p.enabled || total <= 0 {
		return
	}
	pct := float64(downloaded) * 100 / float64(total)
	fmt.Fprintf(p.w, "\r  %s %5.1f%% (%s / %s)", p.label, pct, humanBytes(downloaded), humanBytes(total))
	p.drawn = true
}

// Done ends the progress line.
func (p *Progress) Done() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
