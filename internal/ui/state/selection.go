package state

import (
	"github.com/atomicstack/castaway/internal/podcast"
	store "github.com/atomicstack/castaway/internal/state"
)

// Selectable is an item that can be picked for a batch action.
type Selectable[T any] interface {
	Item
	IsSelected() bool
	WithSelected(selected bool) T
}

// EpisodesOf returns the episode store of the podcast under the cursor.
func EpisodesOf(m *Menu[podcast.Podcast]) (*store.Store[podcast.Episode], bool) {
	p, ok := m.Current()
	if !ok || p.Episodes == nil {
		return nil, false
	}
	return p.Episodes, true
}

// SelectItem flips the pick flag of the entity under the cursor.
func SelectItem[T Selectable[T]](m *Menu[T]) error {
	idx, ok := m.CurrentIndex()
	if !ok {
		return nil
	}
	changed := false
	err := m.Items.Update(func(tx *store.Txn[T]) error {
		item, ok := tx.At(idx)
		if !ok {
			return nil
		}
		changed = true
		return tx.ReplaceAt(idx, item.WithSelected(!item.IsSelected()))
	})
	if err != nil {
		return err
	}
	if changed {
		m.UpdateItems()
		m.HighlightSelected(true)
	}
	return nil
}

// SelectAllItems picks every entity, or clears every pick when all of them
// are already picked.
func SelectAllItems[T Selectable[T]](m *Menu[T]) error {
	changed := false
	err := m.Items.Update(func(tx *store.Txn[T]) error {
		all := true
		tx.Each(func(_ int, item T) bool {
			all = item.IsSelected()
			return all
		})
		for pos := 0; pos < tx.Len(); pos++ {
			item, _ := tx.At(pos)
			if err := tx.ReplaceAt(pos, item.WithSelected(!all)); err != nil {
				return err
			}
			changed = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		m.UpdateItems()
		m.HighlightSelected(true)
	}
	return nil
}

// Picked returns the picked entities in store order.
func Picked[T Selectable[T]](items *store.Store[T]) []T {
	var out []T
	for _, item := range items.Entries() {
		if item.IsSelected() {
			out = append(out, item)
		}
	}
	return out
}
