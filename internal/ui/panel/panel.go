// Package panel provides the bordered row surface the menus paint into.
// Rows are addressed inside the border; the surface keeps the text and
// style of every row and renders them on demand.
package panel

import (
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/atomicstack/castaway/internal/format/text"
	"github.com/atomicstack/castaway/internal/theme"
)

// Surface is the set of painting primitives a menu needs.
type Surface interface {
	Rows() int
	Cols() int
	Erase()
	WriteLine(row int, s string)
	// WriteWrapped writes s from row onwards, wrapped to the surface
	// width, and returns the number of rows used.
	WriteWrapped(row int, s string) int
	// InsertLine shifts row and everything below it down by one,
	// discarding the last row.
	InsertLine(row int, s string)
	// DeleteLine removes row, shifting everything below it up by one and
	// blanking the last row.
	DeleteLine(row int)
	SetStyle(row int, attr theme.Attr, color theme.Color)
	Resize(rows, cols, y, x int)
}

// Line is the content of one row.
type Line struct {
	Text  string
	Attr  theme.Attr
	Color theme.Color
}

// Panel is an in-memory Surface rendered with Lip Gloss.
type Panel struct {
	title string
	rows  int
	cols  int
	y, x  int
	lines []Line
}

var _ Surface = (*Panel)(nil)

// New returns a panel with rows by cols of content space at origin (y, x).
func New(title string, rows, cols, y, x int) *Panel {
	p := &Panel{title: title}
	p.Resize(rows, cols, y, x)
	return p
}

func (p *Panel) Rows() int { return p.rows }

func (p *Panel) Cols() int { return p.cols }

// Origin returns the screen position of the panel's top-left corner.
func (p *Panel) Origin() (y, x int) { return p.y, p.x }

// Title returns the label drawn in the top border.
func (p *Panel) Title() string { return p.title }

// Line returns a copy of row, or an empty line when row is out of range.
func (p *Panel) Line(row int) Line {
	if row < 0 || row >= len(p.lines) {
		return Line{}
	}
	return p.lines[row]
}

// Lines returns a copy of every row.
func (p *Panel) Lines() []Line {
	return append([]Line(nil), p.lines...)
}

func (p *Panel) Erase() {
	for i := range p.lines {
		p.lines[i] = Line{}
	}
}

func (p *Panel) WriteLine(row int, s string) {
	if row < 0 || row >= p.rows {
		return
	}
	p.lines[row].Text = text.Truncate(s, p.cols)
}

func (p *Panel) WriteWrapped(row int, s string) int {
	if p.cols <= 0 {
		return 0
	}
	wrapped := wrap.String(wordwrap.String(s, p.cols), p.cols)
	used := 0
	for _, line := range strings.Split(wrapped, "\n") {
		if row+used >= p.rows {
			break
		}
		p.WriteLine(row+used, strings.TrimRight(line, " "))
		used++
	}
	return used
}

func (p *Panel) InsertLine(row int, s string) {
	if row < 0 || row >= p.rows {
		return
	}
	copy(p.lines[row+1:], p.lines[row:p.rows-1])
	p.lines[row] = Line{Text: text.Truncate(s, p.cols)}
}

func (p *Panel) DeleteLine(row int) {
	if row < 0 || row >= p.rows {
		return
	}
	copy(p.lines[row:], p.lines[row+1:])
	p.lines[p.rows-1] = Line{}
}

func (p *Panel) SetStyle(row int, attr theme.Attr, color theme.Color) {
	if row < 0 || row >= p.rows {
		return
	}
	p.lines[row].Attr = attr
	p.lines[row].Color = color
}

// Resize changes the content area, keeping the rows that still fit and
// clipping their text to the new width.
func (p *Panel) Resize(rows, cols, y, x int) {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	lines := make([]Line, rows)
	copy(lines, p.lines)
	for i := range lines {
		lines[i].Text = text.Truncate(lines[i].Text, cols)
	}
	p.rows, p.cols, p.y, p.x = rows, cols, y, x
	p.lines = lines
}

// Width returns the outer width including border and padding.
func (p *Panel) Width() int { return p.cols + 4 }

// Height returns the outer height including the border.
func (p *Panel) Height() int { return p.rows + 2 }

// Render draws the panel with its border.
func (p *Panel) Render(styles *theme.Styles) string {
	border := *styles.Border
	inner := p.cols + 2
	label := ""
	if p.title != "" && inner > 2 {
		label = " " + text.Truncate(p.title, inner-3) + " "
	}
	fill := inner - 1 - text.Width(label)
	if fill < 0 {
		fill = 0
	}
	top := border.Render("┌─") + styles.Header.Render(label) + border.Render(strings.Repeat("─", fill)+"┐")
	if label == "" {
		top = border.Render("┌" + strings.Repeat("─", inner) + "┐")
	}

	out := make([]string, 0, p.rows+2)
	out = append(out, truncate.String(top, uint(p.Width())))
	side := border.Render("│")
	for _, line := range p.lines {
		body := styles.Row(line.Attr, line.Color).Render(text.PadRight(line.Text, p.cols))
		out = append(out, side+" "+body+" "+side)
	}
	out = append(out, border.Render("└"+strings.Repeat("─", inner)+"┘"))
	return strings.Join(out, "\n")
}
