package state

import (
	"github.com/atomicstack/castaway/internal/logging/events"
	store "github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/theme"
)

// Scroll moves the cursor one row. Any delta beyond one row is clamped to a
// single step. When the cursor would leave the window the window shifts by
// one entity instead and only the row entering it is painted.
func (m *Menu[T]) Scroll(delta int) {
	n := m.Items.Len()
	if n == 0 || m.Selected == NoSelection {
		return
	}
	// The store may have shrunk through another handle since the last paint.
	if m.TopRow > max(0, n-m.listRows()) || m.MenuIdx(m.Selected) >= n {
		m.UpdateItems()
	}
	switch {
	case delta > 1:
		delta = 1
	case delta < -1:
		delta = -1
	case delta == 0:
		return
	}

	rows := m.Panel.Rows()
	if rows <= m.StartRow {
		return
	}
	cols := m.Panel.Cols()
	title := func(item T) string { return item.TitleText(cols) }

	old := m.Selected
	m.Selected += delta

	switch {
	case m.Selected > rows-1:
		m.Selected = rows - 1
		if line, ok := store.MapOne(m.Items, m.TopRow+m.listRows(), title); ok {
			m.TopRow++
			m.Panel.DeleteLine(m.StartRow)
			old--
			m.Panel.WriteLine(rows-1, line)
			events.Menu.Shift(m.TopRow, m.Selected)
		}
	case m.Selected < m.StartRow:
		m.Selected = m.StartRow
		if m.TopRow > 0 {
			if line, ok := store.MapOne(m.Items, m.TopRow-1, title); ok {
				m.TopRow--
				m.Panel.InsertLine(m.StartRow, line)
				old++
				events.Menu.Shift(m.TopRow, m.Selected)
			}
		}
	}

	if last := m.StartRow + n - 1 - m.TopRow; m.Selected > last {
		m.Selected = last
	}
	if m.Selected < m.StartRow {
		m.Selected = m.StartRow
	}

	if old != m.Selected {
		m.paint(old, theme.ColorNormal)
	}
	m.paint(m.Selected, theme.ColorHighlightedActive)
}

// Resize changes the panel geometry. When the cursor row no longer fits the
// window moves down so the same entity stays under the cursor on the last
// row. Callers repaint with UpdateItems afterwards.
func (m *Menu[T]) Resize(rows, cols, y, x int) {
	m.Panel.Resize(rows, cols, y, x)
	if m.Selected == NoSelection {
		return
	}
	last := m.Panel.Rows() - 1
	if m.Selected > last {
		m.TopRow += m.Selected - last
		m.Selected = last
	}
	if n := m.Items.Len(); n > 0 {
		m.clampWindow(n)
	}
	events.Menu.Resize(rows, cols, m.TopRow, m.Selected)
}
