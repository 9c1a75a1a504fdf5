package theme

import "testing"

func TestRowWeight(t *testing.T) {
	s := Default()
	if !s.Row(AttrBold, ColorNormal).GetBold() {
		t.Fatalf("expected bold row")
	}
	if s.Row(AttrNormal, ColorError).GetBold() {
		t.Fatalf("expected weight to override the palette")
	}
}

func TestRowPalette(t *testing.T) {
	s := Default()
	got := s.Row(AttrNormal, ColorHighlightedActive).GetBackground()
	if got != s.HighlightedActive.GetBackground() {
		t.Fatalf("expected active highlight background, got %v", got)
	}
	if s.Row(AttrNormal, Color(99)).GetForeground() != s.Normal.GetForeground() {
		t.Fatalf("expected unknown palette to fall back to normal")
	}
}
