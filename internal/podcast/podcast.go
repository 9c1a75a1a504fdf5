// Package podcast defines the entities shown in the two panes: podcasts,
// their episodes, and the new-episode picks offered after a sync.
//
// A Podcast's title reads its episode store, so code holding a podcast
// store's lock may take an episode store's lock, never the reverse.
package podcast

import (
	"fmt"
	"time"

	"github.com/atomicstack/castaway/internal/format/text"
	"github.com/atomicstack/castaway/internal/state"
)

// Widths above which titles carry extra metadata.
const (
	CountsWidth   = 25
	DurationWidth = 45
	PubDateWidth  = 60
)

// Podcast is a subscribed feed.
type Podcast struct {
	ID          int64
	Title       string
	URL         string
	Description string
	Author      string
	Explicit    *bool
	LastChecked time.Time
	// Episodes is shared by every copy of the podcast.
	Episodes *state.Store[Episode]
	// AnyUnplayed is kept current by RefreshUnplayed before the podcast is
	// stored.
	AnyUnplayed bool
}

// Key implements state.Entity.
func (p Podcast) Key() int64 { return p.ID }

// IsPlayed reports whether every episode has been played.
func (p Podcast) IsPlayed() bool { return !p.AnyUnplayed }

// Counts returns the number of played episodes and the total.
func (p Podcast) Counts() (played, total int) {
	if p.Episodes == nil {
		return 0, 0
	}
	flags := state.Map(p.Episodes, func(ep Episode) bool { return ep.Played })
	for _, f := range flags {
		if f {
			played++
		}
	}
	return played, len(flags)
}

// TitleText renders the podcast for a row of the given width.
func (p Podcast) TitleText(width int) string {
	if width > CountsWidth {
		played, total := p.Counts()
		return text.Justify(p.Title, text.Counts(played, total), width)
	}
	return text.Truncate(p.Title, width)
}

// RefreshUnplayed recomputes AnyUnplayed from the episode store.
func RefreshUnplayed(p *Podcast) {
	p.AnyUnplayed = false
	if p.Episodes == nil {
		return
	}
	for _, played := range state.Map(p.Episodes, func(ep Episode) bool { return ep.Played }) {
		if !played {
			p.AnyUnplayed = true
			return
		}
	}
}

// Episode is one item of a podcast feed.
type Episode struct {
	ID          int64
	PodcastID   int64
	Title       string
	URL         string
	GUID        string
	Description string
	PubDate     *time.Time
	// Duration in seconds.
	Duration *int64
	// Path is the downloaded file, empty when not downloaded.
	Path   string
	Played bool
}

// Key implements state.Entity.
func (e Episode) Key() int64 { return e.ID }

// IsPlayed reports the played flag.
func (e Episode) IsPlayed() bool { return e.Played }

// Downloaded reports whether a local file is recorded.
func (e Episode) Downloaded() bool { return e.Path != "" }

// TitleText renders the episode for a row of the given width.
func (e Episode) TitleText(width int) string {
	label := e.Title
	if e.Downloaded() {
		label = "[D] " + label
	}
	switch {
	case width > PubDateWidth && e.PubDate != nil:
		meta := fmt.Sprintf("(%s) [%s]", text.Date(e.PubDate), text.Duration(e.Duration))
		return text.Justify(label, meta, width)
	case width > DurationWidth:
		return text.Justify(label, "["+text.Duration(e.Duration)+"]", width)
	default:
		return text.Truncate(label, width)
	}
}

// NewEpisode is an episode found by a sync, offered for download.
type NewEpisode struct {
	ID           int64
	PodcastID    int64
	Title        string
	PodcastTitle string
	Selected     bool
}

// Key implements state.Entity.
func (n NewEpisode) Key() int64 { return n.ID }

// IsSelected reports whether the episode is picked for download.
func (n NewEpisode) IsSelected() bool { return n.Selected }

// IsPlayed is always true so picks render in normal weight.
func (n NewEpisode) IsPlayed() bool { return true }

// WithSelected returns a copy with the pick flag set to selected.
func (n NewEpisode) WithSelected(selected bool) NewEpisode {
	n.Selected = selected
	return n
}

// TitleText renders the pick for a row of the given width.
func (n NewEpisode) TitleText(width int) string {
	mark := " "
	if n.Selected {
		mark = "✓"
	}
	return text.Truncate(fmt.Sprintf(" [%s] %s (%s)", mark, n.Title, n.PodcastTitle), width)
}
