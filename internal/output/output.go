package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// JSONMode controls whether output is JSON or human-readable
var JSONMode bool

var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

// Result represents a generic result for JSON output
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Print outputs data. In JSON mode, marshals to JSON. Otherwise calls the textFn.
func Print(data interface{}, textFn func()) error {
	if JSONMode {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(Stdout, string(out))
		return nil
	}
	textFn()
	return nil
}

// PrintError outputs an error in the current mode. Exiting is left to the caller.
func PrintError(err error) {
	if JSONMode {
		out, _ := json.MarshalIndent(Result{Success: false, Error: err.Error()}, "", "  ")
		fmt.Fprintln(Stdout, string(out))
		return
	}
	Error("%v", err)
}

func Success(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func Error(format string, args ...interface{}) {
	fmt.Fprintln(Stderr, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func Warn(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, warnStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func Info(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "  %s\n", fmt.Sprintf(format, args...))
}

func Title(text string) {
	fmt.Fprintln(Stdout, titleStyle.Render(text))
}

// Field prints "label value" with the label padded to width.
func Field(label string, width int, value string) {
	fmt.Fprintf(Stdout, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-*s", width, label)), value)
}
