package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	processingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)
)

// progressBar redraws one terminal line per percentage update.
type progressBar struct {
	out  io.Writer
	prog progress.Model
	last int
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{
		out:  out,
		prog: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		last: -1,
	}
}

func (b *progressBar) Update(pct int) {
	if pct == b.last {
		return
	}
	b.last = pct
	fmt.Fprintf(b.out, "\r%s", b.prog.ViewAs(float64(pct)/100))
}

// Finish ends the progress line.
func (b *progressBar) Finish() {
	if b.last >= 0 {
		fmt.Fprintln(b.out)
	}
}
