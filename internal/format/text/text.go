// Package text lays out single-line labels in a fixed number of terminal
// cells without ever splitting a character.
package text

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const unknownDuration = "--:--:--"

var widthCond = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// Width returns the number of terminal cells s occupies.
func Width(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate returns the longest prefix of s, made of whole grapheme
// clusters, that fits in width cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if Width(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width {
			break
		}
		used += w
		b.WriteString(g.Str())
	}
	return b.String()
}

// PadRight fills s with spaces up to width cells. Longer input is returned
// unchanged.
func PadRight(s string, width int) string {
	return widthCond.FillRight(s, width)
}

// Justify places meta flush right after label so the result is exactly width
// cells, with at least one space between them. The label is truncated to
// make room. When meta leaves no room for any of the label the bare
// truncated label is returned instead.
func Justify(label, meta string, width int) string {
	metaWidth := Width(meta)
	if meta == "" || metaWidth+2 > width {
		return Truncate(label, width)
	}
	out := Truncate(label, width-metaWidth-1)
	gap := width - Width(out) - metaWidth
	return out + strings.Repeat(" ", gap) + meta
}

// Duration renders seconds as HH:MM:SS, or a placeholder when unknown.
func Duration(seconds *int64) string {
	if seconds == nil || *seconds < 0 {
		return unknownDuration
	}
	s := *seconds
	hours := s / 3600
	s -= hours * 3600
	minutes := s / 60
	s -= minutes * 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, s)
}

// Counts renders a played/total pair.
func Counts(played, total int) string {
	return fmt.Sprintf("(%d/%d)", played, total)
}

// Date renders a publish date as YYYY-MM-DD, or "" when unknown.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
