// Package progress reports long CLI operations such as spreadsheet exports.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback for a fixed number of steps.
type Reporter interface {
	Start(total int, description string)
	Step()
	Finish()
}

// NewReporter returns a TerminalReporter, or a LineReporter on stderr when
// the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{W: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, description string) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Step() {
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LineReporter prints one line per step, for logs.
type LineReporter struct {
	W           io.Writer
	total       int
	current     int
	description string
}

func (r *LineReporter) Start(total int, description string) {
	r.total, r.current, r.description = total, 0, description
	fmt.Fprintf(r.W, "%s: %d rows\n", description, total)
}

func (r *LineReporter) Step() {
	r.current++
	fmt.Fprintf(r.W, "[%d/%d] %s\n", r.current, r.total, r.description)
}

func (r *LineReporter) Finish() {
	fmt.Fprintf(r.W, "%s: done\n", r.description)
}
