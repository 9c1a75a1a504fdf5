package ui

import (
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
)

func newTestHarness(t *testing.T, pods *state.Store[podcast.Podcast]) (*Harness, message.Channels) {
	t.Helper()
	ch := message.NewChannels()
	t.Cleanup(ch.Close)
	return NewHarness(NewModel(pods, ch, 80, 24)), ch
}

func plainView(h *Harness) string {
	return ansi.Strip(h.View())
}

func nextIntent(t *testing.T, ch message.Channels) message.Intent {
	t.Helper()
	intent, ok := ch.Intents.TryRecv()
	if !ok {
		t.Fatalf("expected an intent")
	}
	return intent
}

func expectNoIntent(t *testing.T, ch message.Channels) {
	t.Helper()
	if intent, ok := ch.Intents.TryRecv(); ok {
		t.Fatalf("unexpected intent %#v", intent)
	}
}
