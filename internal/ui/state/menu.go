package state

import (
	store "github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/theme"
	"github.com/atomicstack/castaway/internal/ui/panel"
)

// NoSelection is the cursor row of a menu over an empty store.
const NoSelection = -1

// Item is anything a Menu can list.
type Item interface {
	store.Entity
	TitleText(width int) string
	IsPlayed() bool
}

// Menu renders a moving window over a store into a panel.
//
// Selected is a panel row in [StartRow, Rows-1] and TopRow the store index
// shown at StartRow, so the entity under the cursor is
// TopRow+Selected-StartRow.
type Menu[T Item] struct {
	Panel  panel.Surface
	Header string
	Items  *store.Store[T]

	StartRow int
	TopRow   int
	Selected int
	// KeepHighlight paints the cursor row in the inactive highlight when
	// the menu loses focus instead of clearing it.
	KeepHighlight bool
}

// New builds a menu with the cursor on the first item.
func New[T Item](surface panel.Surface, header string, items *store.Store[T]) *Menu[T] {
	return &Menu[T]{Panel: surface, Header: header, Items: items}
}

// Init paints the header and every visible row.
func (m *Menu[T]) Init() {
	m.UpdateItems()
}

// UpdateItems repaints the whole panel from the current store content.
// A store that shrank under the cursor pulls the cursor back to the new
// last item.
func (m *Menu[T]) UpdateItems() {
	m.Panel.Erase()
	m.StartRow = m.printHeader()

	n := m.Items.Len()
	if n == 0 {
		m.Selected = NoSelection
		m.TopRow = 0
		return
	}
	if m.Selected < m.StartRow {
		m.Selected = m.StartRow
	}
	m.clampWindow(n)

	type row struct {
		title  string
		played bool
	}
	cols := m.Panel.Cols()
	visible := store.MapRange(m.Items, m.TopRow, m.TopRow+m.listRows(), func(item T) row {
		return row{title: item.TitleText(cols), played: item.IsPlayed()}
	})
	for i, r := range visible {
		line := m.StartRow + i
		m.Panel.WriteLine(line, r.title)
		m.Panel.SetStyle(line, weight(r.played), theme.ColorNormal)
	}
}

func (m *Menu[T]) printHeader() int {
	if m.Header == "" {
		return 0
	}
	return m.Panel.WriteWrapped(0, m.Header) + 1
}

// HighlightSelected paints the cursor row with the focused or unfocused
// highlight.
func (m *Menu[T]) HighlightSelected(active bool) {
	color := theme.ColorHighlighted
	if active {
		color = theme.ColorHighlightedActive
	}
	m.paint(m.Selected, color)
}

// Activate highlights the cursor row as focused.
func (m *Menu[T]) Activate() {
	m.paint(m.Selected, theme.ColorHighlightedActive)
}

// Deactivate drops focus from the cursor row.
func (m *Menu[T]) Deactivate() {
	color := theme.ColorNormal
	if m.KeepHighlight {
		color = theme.ColorHighlighted
	}
	m.paint(m.Selected, color)
}

// MenuIdx translates a panel row into a store index. The result is not
// bounds checked.
func (m *Menu[T]) MenuIdx(row int) int {
	return m.TopRow + row - m.StartRow
}

// Current returns the entity under the cursor.
func (m *Menu[T]) Current() (T, bool) {
	if m.Selected == NoSelection {
		var zero T
		return zero, false
	}
	return m.Items.Get(m.MenuIdx(m.Selected))
}

// CurrentIndex returns the store index under the cursor.
func (m *Menu[T]) CurrentIndex() (int, bool) {
	if m.Selected == NoSelection {
		return 0, false
	}
	idx := m.MenuIdx(m.Selected)
	if idx < 0 || idx >= m.Items.Len() {
		return 0, false
	}
	return idx, true
}

// paint restyles row according to the played state of the entity shown
// there. Rows without an entity are left alone.
func (m *Menu[T]) paint(row int, color theme.Color) bool {
	if row == NoSelection {
		return false
	}
	played, ok := store.MapOne(m.Items, m.MenuIdx(row), func(item T) bool { return item.IsPlayed() })
	if !ok {
		return false
	}
	m.Panel.SetStyle(row, weight(played), color)
	return true
}

func (m *Menu[T]) listRows() int {
	rows := m.Panel.Rows() - m.StartRow
	if rows < 1 {
		return 1
	}
	return rows
}

// clampWindow restores the window invariants for a store of n > 0 items,
// keeping the entity under the cursor where it can.
func (m *Menu[T]) clampWindow(n int) {
	listRows := m.listRows()
	cur := m.MenuIdx(m.Selected)
	if cur > n-1 {
		cur = n - 1
	}
	if cur < 0 {
		cur = 0
	}
	maxTop := n - listRows
	if maxTop < 0 {
		maxTop = 0
	}
	if m.TopRow > maxTop {
		m.TopRow = maxTop
	}
	if m.TopRow > cur {
		m.TopRow = cur
	}
	if cur-m.TopRow > listRows-1 {
		m.TopRow = cur - listRows + 1
	}
	if m.TopRow < 0 {
		m.TopRow = 0
	}
	m.Selected = m.StartRow + cur - m.TopRow
}

func weight(played bool) theme.Attr {
	if played {
		return theme.AttrNormal
	}
	return theme.AttrBold
}
