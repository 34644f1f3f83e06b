// Package table renders rows of transcript data, either for a terminal
// (backed by lipgloss) or as markdown. Consumers supply data via the
// TableData interface rather than building lipgloss tables directly.
package table

import (
	"fmt"
	"os"
	"strings"
	"time"

	// Packages
	lipgloss "github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	render "github.com/mutablelogic/go-agentchat/pkg/render"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// TableData is the interface that data sources implement to be rendered
// as a table.
type TableData interface {
	// Header returns the column header labels.
	Header() []string

	// Len returns the number of rows.
	Len() int

	// Row returns the cell values for row i. Return nil to skip a row.
	// Wrap a value in Bold{} to emphasise it.
	Row(i int) []any
}

// Bold wraps a cell value so that it renders emphasised.
type Bold struct{ Value any }

// Entries is a table of transcript entries.
type Entries []schema.Entry

// Suggestions is a numbered table of suggested queries.
type Suggestions []string

// Fields is a two-column table of names and values.
type Fields [][2]string

var _ TableData = Entries(nil)
var _ TableData = Suggestions(nil)
var _ TableData = Fields(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Maximum width of entry content in a table cell
	contentWidth = 60
)

///////////////////////////////////////////////////////////////////////////////
// STYLES

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cellStyle   = lipgloss.NewStyle()
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Render renders the table data as a string suitable for terminal output.
// The table is narrowed to the terminal width when it would overflow.
func Render(data TableData) string {
	t := lgtable.New().
		Headers(data.Header()...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Wrap(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i := range data.Len() {
		row := data.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if b, ok := v.(Bold); ok {
				cells[j] = boldStyle.Render(FormatCell(b.Value))
			} else {
				cells[j] = FormatCell(v)
			}
		}
		t.Row(cells...)
	}

	result := t.Render()
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && widest(result) > w {
		t.Width(w)
		result = t.Render()
	}
	return result
}

// RenderMarkdown renders the table data as a markdown table.
func RenderMarkdown(data TableData) string {
	header := data.Header()
	if len(header) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString("|")
	for _, h := range header {
		buf.WriteString(" " + h + " |")
	}
	buf.WriteString("\n|")
	for range header {
		buf.WriteString("---|")
	}
	for i := range data.Len() {
		row := data.Row(i)
		if row == nil {
			continue
		}
		buf.WriteString("\n|")
		for j := range header {
			cell := "-"
			if j < len(row) {
				cell = markdownCell(row[j])
			}
			buf.WriteString(" " + cell + " |")
		}
	}
	return buf.String()
}

// Truncate shortens s to max runes, collapsing newlines and appending "…"
// if truncated.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// FormatCell converts a value to a display string for a table cell.
// Empty and zero values are shown as "-".
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case Bold:
		return FormatCell(val.Value)
	case string:
		if val == "" {
			return "-"
		}
		return val
	case time.Time:
		if val.IsZero() {
			return "-"
		}
		return val.Format("15:04:05")
	default:
		if s := fmt.Sprint(val); s != "" {
			return s
		}
		return "-"
	}
}

///////////////////////////////////////////////////////////////////////////////
// TABLE DATA

func (e Entries) Header() []string {
	return []string{"#", "Time", "Kind", "Content"}
}

func (e Entries) Len() int {
	return len(e)
}

func (e Entries) Row(i int) []any {
	entry := e[i]
	text, payload := render.Text(entry.Event)
	if text == "" && payload != nil {
		text = payload.Title
	}
	return []any{entry.Index + 1, entry.Time, Bold{render.Label(entry.Kind)}, Truncate(text, contentWidth)}
}

func (s Suggestions) Header() []string {
	return []string{"#", "Suggestion"}
}

func (s Suggestions) Len() int {
	return len(s)
}

func (s Suggestions) Row(i int) []any {
	return []any{Bold{i + 1}, s[i]}
}

func (f Fields) Header() []string {
	return []string{"Name", "Value"}
}

func (f Fields) Len() int {
	return len(f)
}

func (f Fields) Row(i int) []any {
	return []any{Bold{f[i][0]}, f[i][1]}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func widest(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		n = max(n, lipgloss.Width(line))
	}
	return n
}

func markdownCell(v any) string {
	if b, ok := v.(Bold); ok {
		if inner := markdownCell(b.Value); inner != "-" {
			return "**" + inner + "**"
		}
		return "-"
	}
	return strings.ReplaceAll(FormatCell(v), "|", `\|`)
}
