package text

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "short", 10, "short"},
		{"exact", "short", 5, "short"},
		{"ascii", "A Very Cool Episode", 6, "A Very"},
		{"accent", "An episode with le Unicodé", 25, "An episode with le Unicod"},
		{"emoji", "How does an episode with emoji sound? 😉", 38, "How does an episode with emoji sound? "},
		{"emoji half", "ab😉", 3, "ab"},
		{"combining", "café!", 4, "café"},
		{"zero", "anything", 0, ""},
		{"negative", "anything", -3, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.in, tc.width); got != tc.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
			}
		})
	}
}

func TestJustify(t *testing.T) {
	got := Justify("Title", "(1/2)", 12)
	if got != "Title  (1/2)" {
		t.Fatalf("unexpected layout %q", got)
	}
	if Width(got) != 12 {
		t.Fatalf("expected width 12, got %d", Width(got))
	}

	got = Justify("A much longer title", "(1/2)", 12)
	if got != "A much (1/2)" {
		t.Fatalf("expected truncated label with meta, got %q", got)
	}

	got = Justify("Title", "[00:01:00]", 11)
	if got != "Title" {
		t.Fatalf("expected bare label when meta does not fit, got %q", got)
	}

	got = Justify("Ünïcödé title", "[x]", 9)
	if Width(got) != 9 || got != "Ünïcö [x]" {
		t.Fatalf("unexpected unicode layout %q", got)
	}
}

func TestDuration(t *testing.T) {
	secs := int64(12345)
	if got := Duration(&secs); got != "03:25:45" {
		t.Fatalf("unexpected duration %q", got)
	}
	zero := int64(0)
	if got := Duration(&zero); got != "00:00:00" {
		t.Fatalf("unexpected zero duration %q", got)
	}
	if got := Duration(nil); got != "--:--:--" {
		t.Fatalf("unexpected unknown duration %q", got)
	}
}

func TestCountsAndDate(t *testing.T) {
	if got := Counts(3, 10); got != "(3/10)" {
		t.Fatalf("unexpected counts %q", got)
	}
	d := time.Date(2020, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := Date(&d); got != "2020-03-04" {
		t.Fatalf("unexpected date %q", got)
	}
	if got := Date(nil); got != "" {
		t.Fatalf("expected empty date, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Fatalf("unexpected padding %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Fatalf("expected long input unchanged, got %q", got)
	}
}
