package table

import "testing"

func TestFormatAlignsColumns(t *testing.T) {
	rows := [][]string{
		{"a", "Add feed"},
		{"q", "Quit"},
		{"S", "Sync all"},
	}
	got := Format(rows, []Alignment{AlignRight, AlignLeft})
	want := []string{
		"a  Add feed",
		"q  Quit",
		"S  Sync all",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFormatMeasuresCells(t *testing.T) {
	rows := [][]string{
		{"←/h", "Podcasts"},
		{"enter", "Confirm"},
	}
	got := Format(rows, []Alignment{AlignLeft})
	if got[0] != "←/h    Podcasts" {
		t.Fatalf("unexpected first row %q", got[0])
	}
	if got[1] != "enter  Confirm" {
		t.Fatalf("unexpected second row %q", got[1])
	}
}

func TestFormatRightAlign(t *testing.T) {
	got := Format([][]string{{"1", "x"}, {"100", "y"}}, []Alignment{AlignRight})
	if got[0] != "  1  x" || got[1] != "100  y" {
		t.Fatalf("unexpected rows %q", got)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := Format(nil, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
