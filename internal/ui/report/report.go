// Package report renders traversal results for the terminal. Paths go to the
// output stream; summary lines go to the error stream so piping the paths
// stays clean.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"reggie/internal/engine/walk"
)

var (
	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	timingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

type Printer struct {
	out    io.Writer
	errOut io.Writer
	styled bool
}

// NewPrinter styles summary lines only when errOut is a terminal.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut, styled: isTerminal(errOut)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) style(s lipgloss.Style, line string) string {
	if !p.styled {
		return line
	}
	return s.Render(line)
}

// Paths writes one path per line.
func (p *Printer) Paths(paths []string) error {
	w := bufio.NewWriter(p.out)
	for _, path := range paths {
		if _, err := w.WriteString(path); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Count reports the size of the full, unfiltered result.
func (p *Printer) Count(n int, root string) {
	fmt.Fprintln(p.errOut, p.style(countStyle, fmt.Sprintf("There are %d keys in %s.", n, root)))
}

// Timing reports elapsed seconds and, when it can be derived, whole nodes
// per second.
func (p *Printer) Timing(stats walk.Stats) {
	secs := strconv.FormatFloat(stats.Elapsed.Seconds(), 'f', -1, 64)
	fmt.Fprintln(p.errOut, p.style(timingStyle, fmt.Sprintf("Took %s seconds", secs)))
	if kps, ok := stats.Throughput(); ok {
		fmt.Fprintln(p.errOut, p.style(timingStyle, fmt.Sprintf("%d keys/second", int64(kps))))
	}
}

// Header writes a section title to the error stream.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.errOut, p.style(headerStyle, title))
}
