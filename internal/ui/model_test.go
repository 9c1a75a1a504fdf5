package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/testutil"
)

func TestLayoutSplitsScreen(t *testing.T) {
	h, _ := newTestHarness(t, testutil.Library(2, 2))
	m := h.Model()
	if m.podPanel.Cols() != 36 || m.epPanel.Cols() != 36 {
		t.Fatalf("unexpected pane widths %d/%d", m.podPanel.Cols(), m.epPanel.Cols())
	}
	if m.podPanel.Rows() != 21 {
		t.Fatalf("expected 21 content rows, got %d", m.podPanel.Rows())
	}
	if _, x := m.epPanel.Origin(); x != 40 {
		t.Fatalf("expected episode pane at column 40, got %d", x)
	}

	h.Send(tea.WindowSizeMsg{Width: 101, Height: 30})
	if m.podPanel.Cols() != 46 || m.epPanel.Cols() != 47 || m.epPanel.Rows() != 27 {
		t.Fatalf("unexpected geometry after resize: %d/%d rows %d", m.podPanel.Cols(), m.epPanel.Cols(), m.epPanel.Rows())
	}
}

func TestResizeKeepsCursorEntity(t *testing.T) {
	h, _ := newTestHarness(t, testutil.Library(30, 1))
	for i := 0; i < 25; i++ {
		h.Key("j")
	}
	m := h.Model()
	before, _ := m.podMenu.Current()
	h.Send(tea.WindowSizeMsg{Width: 80, Height: 10})
	after, _ := m.podMenu.Current()
	if before.ID != after.ID {
		t.Fatalf("expected cursor to stay on %d, got %d", before.ID, after.ID)
	}
	if m.podMenu.Selected > m.podPanel.Rows()-1 {
		t.Fatalf("cursor row %d outside %d rows", m.podMenu.Selected, m.podPanel.Rows())
	}
}

func TestShowMessageExpires(t *testing.T) {
	h, ch := newTestHarness(t, testutil.Library(1, 1))
	ch.Directives.Send(message.ShowMessage{Text: "first", Duration: time.Second})
	ch.Directives.Send(message.ShowMessage{Text: "second", Duration: time.Second, IsError: true})
	h.Pump()
	if !strings.HasSuffix(plainView(h), "second") {
		t.Fatalf("expected latest message on the bottom row, got:\n%s", plainView(h))
	}
	if !h.Model().messageErr {
		t.Fatalf("expected error palette")
	}
	h.FireTimers()
	if strings.Contains(plainView(h), "second") {
		t.Fatalf("expected message cleared after its timer")
	}
}

func TestOlderTimerKeepsNewerMessage(t *testing.T) {
	h, ch := newTestHarness(t, testutil.Library(1, 1))
	ch.Directives.Send(message.ShowMessage{Text: "first", Duration: time.Second})
	h.Pump()
	first := h.timers
	h.timers = nil
	ch.Directives.Send(message.ShowMessage{Text: "second", Duration: time.Second})
	h.Pump()
	h.Send(first[0](time.Now()))
	if !strings.Contains(plainView(h), "second") {
		t.Fatalf("expected newer message to survive an older timer")
	}
}

func TestRefreshRepaintsAfterExternalChange(t *testing.T) {
	pods := testutil.Library(2, 3)
	h, ch := newTestHarness(t, pods)
	if !strings.Contains(plainView(h), "(0/3)") {
		t.Fatalf("expected counts in podcast row:\n%s", plainView(h))
	}

	p, _ := pods.Get(0)
	_ = p.Episodes.Update(func(tx *state.Txn[podcast.Episode]) error {
		tx.Each(func(_ int, ep podcast.Episode) bool {
			ep.Played = true
			tx.Set(ep)
			return true
		})
		return nil
	})
	if strings.Contains(plainView(h), "(3/3)") {
		t.Fatalf("panels must not change before the refresh directive")
	}
	ch.Directives.Send(message.RefreshMenus{})
	h.Pump()
	if !strings.Contains(plainView(h), "(3/3)") {
		t.Fatalf("expected refreshed counts:\n%s", plainView(h))
	}
}

func TestRefreshFollowsNewFirstPodcast(t *testing.T) {
	pods := state.NewStore[podcast.Podcast](nil)
	h, ch := newTestHarness(t, pods)
	if !strings.Contains(plainView(h), "Welcome to castaway!") {
		t.Fatalf("expected welcome screen")
	}
	_ = pods.Update(func(tx *state.Txn[podcast.Podcast]) error {
		tx.Append(testutil.Podcast(1, "Fresh", testutil.Episodes(1, "Pilot", 1)))
		return nil
	})
	ch.Directives.Send(message.RefreshMenus{})
	h.Pump()
	view := plainView(h)
	if strings.Contains(view, "Welcome") || !strings.Contains(view, "Fresh") || !strings.Contains(view, "Pilot 1") {
		t.Fatalf("expected panes with the new podcast:\n%s", view)
	}
}

func TestTearDownQuits(t *testing.T) {
	h, ch := newTestHarness(t, testutil.Library(1, 1))
	boom := errors.New("boom")
	ch.Directives.Send(message.TearDown{Err: boom})
	ch.Directives.Send(message.ShowMessage{Text: "never shown"})
	h.Pump()
	if !h.Quit() {
		t.Fatalf("expected quit")
	}
	if !errors.Is(h.Model().Err(), boom) {
		t.Fatalf("expected teardown error, got %v", h.Model().Err())
	}
	if h.View() != "" {
		t.Fatalf("expected empty view after teardown")
	}
	if ch.Directives.Len() != 1 {
		t.Fatalf("expected directives after teardown to stay queued, got %d", ch.Directives.Len())
	}
}

func TestDirectiveQueueCloseQuits(t *testing.T) {
	h, ch := newTestHarness(t, testutil.Library(1, 1))
	ch.Directives.Close()
	h.Send(directivesClosedMsg{})
	if !h.Quit() {
		t.Fatalf("expected quit once directives close")
	}
}

func TestPoisonedLibraryShowsError(t *testing.T) {
	pods := testutil.Library(2, 1)
	h, ch := newTestHarness(t, pods)
	func() {
		defer func() { _ = recover() }()
		_ = pods.Update(func(*state.Txn[podcast.Podcast]) error { panic("boom") })
	}()

	ch.Directives.Send(message.RefreshMenus{})
	h.Pump()

	view := plainView(h)
	if strings.Contains(view, "Welcome") {
		t.Fatalf("expected no welcome screen for a poisoned library, got:\n%s", view)
	}
	if !strings.HasSuffix(view, "Error: "+state.ErrLockPoisoned.Error()) {
		t.Fatalf("expected poisoning error on the bottom row, got:\n%s", view)
	}
}
