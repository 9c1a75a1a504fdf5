// Package controller turns UI intents into storage writes, worker jobs and
// player launches, and relays worker results back to the UI as directives.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/atomicstack/castaway/internal/backend"
	"github.com/atomicstack/castaway/internal/data/dispatcher"
	"github.com/atomicstack/castaway/internal/logging"
	"github.com/atomicstack/castaway/internal/logging/events"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
)

var (
	// ErrEmptyURL is reported for an add-feed request without a usable URL.
	ErrEmptyURL = errors.New("feed URL is empty")
	// ErrPanicked wraps a panic recovered while serving an intent or a
	// worker result. It is fatal like a poisoned store.
	ErrPanicked = errors.New("controller panicked")
)

// Repository is the persistence the controller writes user changes to.
type Repository interface {
	SetPlayed(ctx context.Context, episodeID int64, played bool) error
	SetPodcastPlayed(ctx context.Context, podcastID int64, played bool) error
}

// Workers runs feed syncs and downloads in the background.
type Workers interface {
	Sync(job backend.SyncJob) bool
	Download(job backend.DownloadJob) string
	Events() <-chan backend.Event
	Stop()
}

// Player launches an episode.
type Player interface {
	Play(target string) error
}

// Options tunes what the controller tells the UI.
type Options struct {
	MessageDuration time.Duration
	// AutoPick offers episodes found by a sync for download.
	AutoPick bool
}

// Controller owns the podcast store on the non-UI side.
type Controller struct {
	podcasts   *state.Store[podcast.Podcast]
	ch         message.Channels
	repo       Repository
	workers    Workers
	player     Player
	dispatcher *dispatcher.Dispatcher
	opts       Options
}

// New wires a controller. The podcast store handle is shared with the UI.
func New(podcasts *state.Store[podcast.Podcast], ch message.Channels, repo Repository, workers Workers, player Player, opts Options) *Controller {
	if opts.MessageDuration <= 0 {
		opts.MessageDuration = 5 * time.Second
	}
	return &Controller{
		podcasts:   podcasts,
		ch:         ch,
		repo:       repo,
		workers:    workers,
		player:     player,
		dispatcher: dispatcher.New(podcasts),
		opts:       opts,
	}
}

// Run serves intents and worker events until Quit, the intent queue closes
// or ctx ends. It always stops the workers and sends TearDown before it
// returns. A non-nil error means a store became unusable.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	intents := c.pumpIntents(ctx)
	results := c.workers.Events()
	for {
		select {
		case <-ctx.Done():
			c.stop("context", nil)
			return nil
		case intent, ok := <-intents:
			if !ok {
				c.stop("intents closed", nil)
				return nil
			}
			quit, err := c.guardedHandle(ctx, intent)
			if err != nil {
				if c.fatal(err) {
					return err
				}
				c.showError(err)
			}
			if quit {
				c.stop("quit", nil)
				return nil
			}
		case evt, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if err := c.guardedApply(evt); err != nil && c.fatal(err) {
				return err
			}
		}
	}
}

// pumpIntents moves intents from the unbounded queue onto a channel so they
// can be selected together with worker events.
func (c *Controller) pumpIntents(ctx context.Context) <-chan message.Intent {
	out := make(chan message.Intent)
	go func() {
		defer close(out)
		for {
			intent, err := c.ch.Intents.Recv(ctx)
			if err != nil {
				return
			}
			select {
			case out <- intent:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *Controller) guardedHandle(ctx context.Context, intent message.Intent) (quit bool, err error) {
	defer recoverPanic(&err)
	return c.handle(ctx, intent)
}

func (c *Controller) guardedApply(evt backend.Event) (err error) {
	defer recoverPanic(&err)
	return c.apply(evt)
}

// recoverPanic turns a panic into an ErrPanicked error so Run can still
// tear down and the terminal gets restored.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrPanicked, r)
	}
}

// fatal tears everything down when err means a store is poisoned or a
// handler panicked.
func (c *Controller) fatal(err error) bool {
	var reason string
	switch {
	case errors.Is(err, state.ErrLockPoisoned):
		events.Store.Poisoned("controller")
		reason = "poisoned"
	case errors.Is(err, ErrPanicked):
		reason = "panic"
	default:
		return false
	}
	logging.Error(err)
	c.stop(reason, err)
	return true
}

func (c *Controller) stop(reason string, err error) {
	events.Controller.Stop(reason)
	c.workers.Stop()
	c.ch.Directives.Send(message.TearDown{Err: err})
}

func (c *Controller) handle(ctx context.Context, intent message.Intent) (bool, error) {
	events.Controller.Intent(fmt.Sprintf("%T", intent))
	switch in := intent.(type) {
	case message.AddFeed:
		return false, c.addFeed(in.URL)
	case message.Play:
		return false, c.play(in.Podcast, in.Episode)
	case message.SetPlayed:
		return false, c.setPlayed(ctx, in.Podcast, in.Episode, in.Played)
	case message.SetAllPlayed:
		return false, c.setAllPlayed(ctx, in.Podcast, in.Played)
	case message.SyncOne:
		return false, c.syncOne(in.Podcast)
	case message.SyncAll:
		return false, c.syncAll()
	case message.DownloadOne:
		return false, c.downloadOne(in.Podcast, in.Episode)
	case message.DownloadAll:
		return false, c.downloadAll(in.Podcast)
	case message.DownloadSelected:
		return false, c.downloadSelected(in.Picks)
	case message.Quit:
		return true, nil
	}
	return false, nil
}

func (c *Controller) addFeed(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid feed URL %q", raw)
	}
	if c.workers.Sync(backend.SyncJob{URL: u.String()}) {
		c.show("Fetching "+u.String()+"...", false)
	}
	return nil
}

func (c *Controller) play(podPos, epPos int) error {
	_, ep, err := c.episodeAt(podPos, epPos)
	if err != nil {
		return err
	}
	target := ep.URL
	if ep.Downloaded() {
		target = ep.Path
	}
	if err := c.player.Play(target); err != nil {
		return fmt.Errorf("play %s: %w", ep.Title, err)
	}
	c.show("Playing "+ep.Title, false)
	return nil
}

func (c *Controller) setPlayed(ctx context.Context, podPos, epPos int, played bool) error {
	p, ep, err := c.episodeAt(podPos, epPos)
	if err != nil {
		return err
	}
	if err := c.repo.SetPlayed(ctx, ep.ID, played); err != nil {
		return err
	}
	err = p.Episodes.Update(func(tx *state.Txn[podcast.Episode]) error {
		cur, ok := tx.Get(ep.ID)
		if !ok {
			return nil
		}
		cur.Played = played
		tx.Set(cur)
		return nil
	})
	if err != nil {
		return err
	}
	if err := c.refreshPodcast(p.ID); err != nil {
		return err
	}
	c.ch.Directives.Send(message.RefreshMenus{})
	return nil
}

func (c *Controller) setAllPlayed(ctx context.Context, podPos int, played bool) error {
	p, err := c.podcastAt(podPos)
	if err != nil {
		return err
	}
	if err := c.repo.SetPodcastPlayed(ctx, p.ID, played); err != nil {
		return err
	}
	if p.Episodes != nil {
		err = p.Episodes.Update(func(tx *state.Txn[podcast.Episode]) error {
			tx.Each(func(_ int, ep podcast.Episode) bool {
				ep.Played = played
				tx.Set(ep)
				return true
			})
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := c.refreshPodcast(p.ID); err != nil {
		return err
	}
	c.ch.Directives.Send(message.RefreshMenus{})
	return nil
}

// refreshPodcast recomputes the unplayed flag of a podcast after its
// episodes changed.
func (c *Controller) refreshPodcast(id int64) error {
	return c.podcasts.Update(func(tx *state.Txn[podcast.Podcast]) error {
		p, ok := tx.Get(id)
		if !ok {
			return nil
		}
		podcast.RefreshUnplayed(&p)
		tx.Set(p)
		return nil
	})
}

func (c *Controller) syncOne(podPos int) error {
	p, err := c.podcastAt(podPos)
	if err != nil {
		return err
	}
	if c.workers.Sync(backend.SyncJob{PodcastID: p.ID, URL: p.URL}) {
		c.show("Syncing "+p.Title+"...", false)
	}
	return nil
}

func (c *Controller) syncAll() error {
	all := c.podcasts.Entries()
	if err := c.podcasts.Err(); err != nil {
		return err
	}
	queued := 0
	for _, p := range all {
		if c.workers.Sync(backend.SyncJob{PodcastID: p.ID, URL: p.URL}) {
			queued++
		}
	}
	if queued > 0 {
		c.show(fmt.Sprintf("Syncing %d podcasts...", queued), false)
	}
	return nil
}

func (c *Controller) downloadOne(podPos, epPos int) error {
	p, ep, err := c.episodeAt(podPos, epPos)
	if err != nil {
		return err
	}
	if ep.Downloaded() {
		c.show(ep.Title+" is already downloaded", false)
		return nil
	}
	c.queueDownload(p, ep)
	c.show("Downloading "+ep.Title+"...", false)
	return nil
}

func (c *Controller) downloadAll(podPos int) error {
	p, err := c.podcastAt(podPos)
	if err != nil {
		return err
	}
	queued := 0
	if p.Episodes != nil {
		for _, ep := range p.Episodes.Entries() {
			if ep.Downloaded() {
				continue
			}
			c.queueDownload(p, ep)
			queued++
		}
		if err := p.Episodes.Err(); err != nil {
			return err
		}
	}
	if queued == 0 {
		c.show("Nothing to download for "+p.Title, false)
		return nil
	}
	c.show(fmt.Sprintf("Downloading %d episodes of %s...", queued, p.Title), false)
	return nil
}

func (c *Controller) downloadSelected(picks []message.Pick) error {
	queued := 0
	for _, pick := range picks {
		p, ok := c.podcasts.GetByID(pick.PodcastID)
		if err := c.podcasts.Err(); err != nil {
			return err
		}
		if !ok || p.Episodes == nil {
			continue
		}
		ep, ok := p.Episodes.GetByID(pick.EpisodeID)
		if err := p.Episodes.Err(); err != nil {
			return err
		}
		if !ok || ep.Downloaded() {
			continue
		}
		c.queueDownload(p, ep)
		queued++
	}
	if queued > 0 {
		c.show(fmt.Sprintf("Downloading %d new episodes...", queued), false)
	}
	return nil
}

func (c *Controller) queueDownload(p podcast.Podcast, ep podcast.Episode) {
	c.workers.Download(backend.DownloadJob{
		PodcastID:    p.ID,
		EpisodeID:    ep.ID,
		PodcastTitle: p.Title,
		Title:        ep.Title,
		URL:          ep.URL,
	})
}

// apply hands a worker result to the dispatcher and tells the UI what
// changed.
func (c *Controller) apply(evt backend.Event) error {
	if evt.Err != nil {
		logging.Error(fmt.Errorf("%s: %w", evt.Kind, evt.Err))
	}
	res, err := c.dispatcher.Handle(evt)
	if err != nil {
		return err
	}
	if res.Changed {
		c.ch.Directives.Send(message.RefreshMenus{})
	}
	if res.Message != "" {
		c.show(res.Message, res.IsError)
	}
	if c.opts.AutoPick && len(res.NewEpisodes) > 0 {
		c.ch.Directives.Send(message.PickNewEpisodes{Episodes: res.NewEpisodes})
	}
	return nil
}

func (c *Controller) podcastAt(pos int) (podcast.Podcast, error) {
	p, ok := c.podcasts.Get(pos)
	if err := c.podcasts.Err(); err != nil {
		return podcast.Podcast{}, err
	}
	if !ok {
		return podcast.Podcast{}, fmt.Errorf("podcast %d: %w", pos, state.ErrInvalidIndex)
	}
	return p, nil
}

func (c *Controller) episodeAt(podPos, epPos int) (podcast.Podcast, podcast.Episode, error) {
	p, err := c.podcastAt(podPos)
	if err != nil {
		return p, podcast.Episode{}, err
	}
	if p.Episodes == nil {
		return p, podcast.Episode{}, fmt.Errorf("episode %d of %s: %w", epPos, p.Title, state.ErrInvalidIndex)
	}
	ep, ok := p.Episodes.Get(epPos)
	if err := p.Episodes.Err(); err != nil {
		return p, podcast.Episode{}, err
	}
	if !ok {
		return p, podcast.Episode{}, fmt.Errorf("episode %d of %s: %w", epPos, p.Title, state.ErrInvalidIndex)
	}
	return p, ep, nil
}

func (c *Controller) show(text string, isError bool) {
	c.ch.Directives.Send(message.ShowMessage{Text: text, Duration: c.opts.MessageDuration, IsError: isError})
}

func (c *Controller) showError(err error) {
	events.Controller.Error(err)
	logging.Error(err)
	c.show("Error: "+err.Error(), true)
}
