// Package message holds the closed sets of messages exchanged between the
// UI loop and the controller, and the queues that carry them.
//
// Positions in intents are absolute indexes into the podcast store and the
// selected podcast's episode store at the time the intent was sent.
package message

import (
	"time"

	"github.com/atomicstack/castaway/internal/podcast"
)

// Intent is a user action sent from the UI loop to the controller.
type Intent interface {
	intent()
}

// AddFeed subscribes to the feed at URL.
type AddFeed struct{ URL string }

// Play starts the external player on an episode.
type Play struct{ Podcast, Episode int }

// SetPlayed marks one episode.
type SetPlayed struct {
	Podcast, Episode int
	Played           bool
}

// SetAllPlayed marks every episode of a podcast.
type SetAllPlayed struct {
	Podcast int
	Played  bool
}

// SyncOne refreshes one podcast's feed.
type SyncOne struct{ Podcast int }

// SyncAll refreshes every feed.
type SyncAll struct{}

// DownloadOne fetches one episode's enclosure.
type DownloadOne struct{ Podcast, Episode int }

// DownloadAll fetches every episode of a podcast that is not on disk.
type DownloadAll struct{ Podcast int }

// Pick identifies an episode chosen in the new-episode picker.
type Pick struct{ PodcastID, EpisodeID int64 }

// DownloadSelected confirms the new-episode picker.
type DownloadSelected struct{ Picks []Pick }

// Quit asks the controller to stop everything and tear down the UI.
type Quit struct{}

// Noop does nothing.
type Noop struct{}

func (AddFeed) intent()          {}
func (Play) intent()             {}
func (SetPlayed) intent()        {}
func (SetAllPlayed) intent()     {}
func (SyncOne) intent()          {}
func (SyncAll) intent()          {}
func (DownloadOne) intent()      {}
func (DownloadAll) intent()      {}
func (DownloadSelected) intent() {}
func (Quit) intent()             {}
func (Noop) intent()             {}

// Directive is an instruction from the controller to the UI loop.
type Directive interface {
	directive()
}

// RefreshMenus repaints both panes from the stores.
type RefreshMenus struct{}

// ShowMessage displays text on the message line for Duration.
type ShowMessage struct {
	Text     string
	Duration time.Duration
	IsError  bool
}

// PickNewEpisodes opens the picker over episodes found by a sync.
type PickNewEpisodes struct{ Episodes []podcast.NewEpisode }

// TearDown ends the UI loop. Err is non-nil on a fatal failure.
type TearDown struct{ Err error }

func (RefreshMenus) directive()    {}
func (ShowMessage) directive()     {}
func (PickNewEpisodes) directive() {}
func (TearDown) directive()        {}

// Channels bundles both directions between the UI loop and the controller.
type Channels struct {
	Intents    *Queue[Intent]
	Directives *Queue[Directive]
}

// NewChannels allocates an empty pair of queues.
func NewChannels() Channels {
	return Channels{
		Intents:    NewQueue[Intent](),
		Directives: NewQueue[Directive](),
	}
}

// Close closes both directions.
func (c Channels) Close() {
	c.Intents.Close()
	c.Directives.Close()
}
