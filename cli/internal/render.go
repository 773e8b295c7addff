package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/devilmonastery/fractal/internal/pkg/timeutil"
)

// printer writes command results in the format selected by --json / --batch
type printer struct {
	out      io.Writer
	json     bool
	batch    bool
	theme    string
	timezone string
}

func newPrinter(out io.Writer, flags *globalFlags, theme, timezone string) *printer {
	return &printer{out: out, json: flags.json, batch: flags.batch, theme: theme, timezone: timezone}
}

// Time formats a timestamp in the configured timezone
func (p *printer) Time(t time.Time) string {
	return timeutil.FormatInTimezone(t, p.timezone)
}

// Batch prints a bare value for scripts
func (p *printer) Batch(v any) {
	fmt.Fprintln(p.out, v)
}

// Line prints one plain line
func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Object prints v as indented JSON. On a terminal, without --json, it is
// highlighted as a fenced code block.
func (p *printer) Object(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if p.json || !isTerminal(p.out) {
		_, err := fmt.Fprintln(p.out, string(data))
		return err
	}
	return p.Markdown("```json\n" + string(data) + "\n```\n")
}

// Markdown renders markdown with glamour on a terminal and prints it as is otherwise
func (p *printer) Markdown(markdown string) error {
	rendered, err := renderMarkdown(markdown, p.theme, isTerminal(p.out))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(p.out, rendered)
	return err
}

// Table prints rows as JSON with --json and as a markdown table otherwise
func (p *printer) Table(title string, headers []string, rows [][]string, v any) error {
	if p.json {
		return p.Object(v)
	}
	return p.Markdown(markdownTable(title, headers, rows))
}

// renderMarkdown renders markdown content, using glamour for terminal output or plain text otherwise
func renderMarkdown(markdown string, theme string, tty bool) (string, error) {
	if !tty {
		return markdown, nil
	}

	rendered, err := glamour.Render(markdown, theme)
	if err != nil {
		// Fall back to plain markdown if rendering fails
		return markdown, nil
	}
	return rendered, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markdownTable builds a GitHub-style table with an optional heading
func markdownTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}

	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeCell(cell)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(rows) == 0 {
		b.WriteString("\n_No entries_\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func checkmark(b bool) string {
	if b {
		return "✅"
	}
	return "❌"
}
