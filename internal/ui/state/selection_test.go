package state

import (
	"testing"

	"github.com/atomicstack/castaway/internal/podcast"
	store "github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/theme"
	"github.com/atomicstack/castaway/internal/ui/panel"
)

func newPicker(selected ...bool) (*Menu[podcast.NewEpisode], *panel.Panel) {
	items := make([]podcast.NewEpisode, len(selected))
	for i, s := range selected {
		items[i] = podcast.NewEpisode{ID: int64(i + 1), PodcastID: 9, Title: "ep", PodcastTitle: "show", Selected: s}
	}
	p := panel.New("New episodes", 5, 30, 0, 0)
	m := New[podcast.NewEpisode](p, "", store.NewStore(items))
	m.Init()
	return m, p
}

func flags(m *Menu[podcast.NewEpisode]) []bool {
	return store.Map(m.Items, func(n podcast.NewEpisode) bool { return n.Selected })
}

func TestSelectItemTogglesOnlyCursor(t *testing.T) {
	m, p := newPicker(false, false, false)
	m.Scroll(1)

	if err := SelectItem(m); err != nil {
		t.Fatalf("select: %v", err)
	}
	got := flags(m)
	if got[0] || !got[1] || got[2] {
		t.Fatalf("expected only the cursor item picked, got %v", got)
	}
	if l := p.Line(1); l.Text != " [✓] ep (show)" || l.Color != theme.ColorHighlightedActive {
		t.Fatalf("expected repainted highlighted row, got %+v", l)
	}

	if err := SelectItem(m); err != nil {
		t.Fatalf("select: %v", err)
	}
	if flags(m)[1] {
		t.Fatalf("expected second toggle to clear the pick")
	}
}

func TestSelectAllIsUnanimousToggle(t *testing.T) {
	m, _ := newPicker(true, false, true)

	if err := SelectAllItems(m); err != nil {
		t.Fatalf("select all: %v", err)
	}
	for i, f := range flags(m) {
		if !f {
			t.Fatalf("item %d: expected picked after mixed state", i)
		}
	}

	if err := SelectAllItems(m); err != nil {
		t.Fatalf("select all: %v", err)
	}
	for i, f := range flags(m) {
		if f {
			t.Fatalf("item %d: expected cleared once all were picked", i)
		}
	}
}

func TestPicked(t *testing.T) {
	m, _ := newPicker(false, true, true)
	picked := Picked(m.Items)
	if len(picked) != 2 || picked[0].ID != 2 || picked[1].ID != 3 {
		t.Fatalf("unexpected picks %+v", picked)
	}
}

func TestSelectOnEmptyPicker(t *testing.T) {
	m, _ := newPicker()
	if err := SelectItem(m); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := SelectAllItems(m); err != nil {
		t.Fatalf("select all: %v", err)
	}
}

func TestEpisodesOfFollowsCursor(t *testing.T) {
	first := store.NewStore([]podcast.Episode{{ID: 1, Title: "a"}})
	second := store.NewStore([]podcast.Episode{{ID: 2, Title: "b"}, {ID: 3, Title: "c"}})
	pods := store.NewStore([]podcast.Podcast{
		{ID: 10, Title: "one", Episodes: first},
		{ID: 20, Title: "two", Episodes: second},
	})
	m := New[podcast.Podcast](panel.New("Podcasts", 5, 30, 0, 0), "", pods)
	m.Init()

	eps, ok := EpisodesOf(m)
	if !ok || eps != first {
		t.Fatalf("expected first podcast's episodes")
	}
	m.Scroll(1)
	eps, ok = EpisodesOf(m)
	if !ok || eps != second {
		t.Fatalf("expected second podcast's episodes")
	}

	empty := New[podcast.Podcast](panel.New("", 5, 30, 0, 0), "", store.NewStore[podcast.Podcast](nil))
	empty.Init()
	if _, ok := EpisodesOf(empty); ok {
		t.Fatalf("expected no episodes for empty menu")
	}
}
