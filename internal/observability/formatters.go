package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jonathan/anupalankarta/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the number of cells in a progress bar
	barWidth = 20
)

// Printer renders checklist results for a terminal.
type Printer struct {
	out    io.Writer
	pass   *color.Color
	fail   *color.Color
	notice *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer. Color follows the
// terminal detection of fatih/color; use SetColor to override it.
func NewPrinter(out io.Writer) *Printer {
	p := &Printer{
		out:    out,
		pass:   color.New(color.FgGreen),
		fail:   color.New(color.FgRed),
		notice: color.New(color.FgYellow),
	}
	p.SetColor(!color.NoColor)
	return p
}

// SetColor enables or disables ANSI color output.
func (p *Printer) SetColor(enabled bool) {
	for _, c := range []*color.Color{p.pass, p.fail, p.notice} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintChecklist writes one box per selected framework with a progress bar and a mark per item.
func (p *Printer) PrintChecklist(results types.FrameworkResults, selected []string) error {
	frameworks, err := results.Select(selected)
	if err != nil {
		return err
	}

	for _, fr := range frameworks {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s %d/%d passed\n\n", ProgressBar(fr.Progress(), barWidth), fr.Passed(), fr.Total()))
		for _, r := range fr.Results {
			if r.Passed {
				sb.WriteString(fmt.Sprintf("✅ %s\n", r.Label))
			} else {
				sb.WriteString(fmt.Sprintf("❌ %s\n", r.Label))
			}
		}
		p.printBox(fr.Framework, strings.TrimSuffix(sb.String(), "\n"))
	}
	return nil
}

// PrintSummary writes a one-line colored verdict per selected framework.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(summaries []types.Summary) {
	for _, s := range summaries {
		c := p.fail
		if s.Total > 0 && s.Passed == s.Total {
			c = p.pass
		}
		c.Fprintf(p.out, "%-10s %d/%d passed (%.0f%%)\n", s.Framework, s.Passed, s.Total, s.Progress*100)
	}
}

// PrintNotice writes an informational line, e.g. when there is nothing to evaluate.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNotice(format string, args ...any) {
	p.notice.Fprintf(p.out, format+"\n", args...)
}

// ProgressBar renders fraction (clamped to [0, 1]) as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return "[]"
	}
	fraction = max(0, min(1, fraction))
	filled := int(fraction*float64(width) + 0.5)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(runes))
}
