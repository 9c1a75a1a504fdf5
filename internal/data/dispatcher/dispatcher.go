// Package dispatcher applies worker results to the in-memory stores the
// menus render.
package dispatcher

import (
	"fmt"
	"strings"

	"github.com/atomicstack/castaway/internal/backend"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/storage"
)

type Result struct {
	Changed     bool
	Message     string
	IsError     bool
	NewEpisodes []podcast.NewEpisode
}

type Dispatcher struct {
	podcasts *state.Store[podcast.Podcast]
}

func New(podcasts *state.Store[podcast.Podcast]) *Dispatcher {
	return &Dispatcher{podcasts: podcasts}
}

// Handle applies evt. The error is non-nil only when a store is unusable.
func (d *Dispatcher) Handle(evt backend.Event) (Result, error) {
	if evt.Err != nil {
		return Result{Message: failureText(evt), IsError: true}, nil
	}
	switch evt.Kind {
	case backend.KindFeedAdded:
		if p, ok := evt.Data.(podcast.Podcast); ok {
			return d.added(p)
		}
	case backend.KindFeedSynced:
		if res, ok := evt.Data.(storage.SyncResult); ok {
			return d.synced(res)
		}
	case backend.KindDownloaded:
		if res, ok := evt.Data.(backend.DownloadResult); ok {
			return d.downloaded(res)
		}
	case backend.KindFileRemoved:
		if eps, ok := evt.Data.([]podcast.Episode); ok {
			return d.removed(eps)
		}
	}
	return Result{}, nil
}

func (d *Dispatcher) added(p podcast.Podcast) (Result, error) {
	if p.Episodes == nil {
		p.Episodes = state.NewStore[podcast.Episode](nil)
	}
	podcast.RefreshUnplayed(&p)
	err := d.podcasts.Update(func(tx *state.Txn[podcast.Podcast]) error {
		tx.Append(p)
		tx.SortFunc(byTitle)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("add podcast %d: %w", p.ID, err)
	}
	return Result{Changed: true, Message: fmt.Sprintf("Added %s (%d episodes)", p.Title, p.Episodes.Len())}, nil
}

// synced merges a refreshed podcast into the existing entry. The existing
// episode store handle is kept so open menus keep pointing at it, and
// episodes already known keep their played flag and file.
func (d *Dispatcher) synced(res storage.SyncResult) (Result, error) {
	fresh := res.Podcast
	var merged podcast.Podcast
	found := false
	err := d.podcasts.Update(func(tx *state.Txn[podcast.Podcast]) error {
		cur, ok := tx.Get(fresh.ID)
		if !ok {
			return nil
		}
		found = true
		merged = fresh
		merged.Episodes = cur.Episodes
		if merged.Episodes == nil {
			merged.Episodes = state.NewStore[podcast.Episode](nil)
		}
		if err := mergeEpisodes(merged.Episodes, fresh.Episodes); err != nil {
			return err
		}
		podcast.RefreshUnplayed(&merged)
		tx.Set(merged)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("sync podcast %d: %w", fresh.ID, err)
	}
	if !found {
		return Result{}, nil
	}

	out := Result{Changed: true, Message: fmt.Sprintf("Synced %s", merged.Title)}
	for _, ep := range res.Added {
		out.NewEpisodes = append(out.NewEpisodes, podcast.NewEpisode{
			ID:           ep.ID,
			PodcastID:    merged.ID,
			Title:        ep.Title,
			PodcastTitle: merged.Title,
		})
	}
	if n := len(out.NewEpisodes); n > 0 {
		out.Message = fmt.Sprintf("Synced %s: %d new", merged.Title, n)
	}
	return out, nil
}

func mergeEpisodes(dst *state.Store[podcast.Episode], src *state.Store[podcast.Episode]) error {
	var incoming []podcast.Episode
	if src != nil {
		incoming = src.Entries()
	}
	return dst.Update(func(tx *state.Txn[podcast.Episode]) error {
		for i, ep := range incoming {
			if old, ok := tx.Get(ep.ID); ok {
				incoming[i].Played = old.Played
				incoming[i].Path = old.Path
			}
		}
		tx.Reset(incoming)
		return nil
	})
}

func (d *Dispatcher) downloaded(res backend.DownloadResult) (Result, error) {
	err := d.updateEpisode(res.PodcastID, res.EpisodeID, func(ep *podcast.Episode) {
		ep.Path = res.Path
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Changed: true, Message: fmt.Sprintf("Downloaded %s (%s)", res.Title, res.Size())}, nil
}

func (d *Dispatcher) removed(eps []podcast.Episode) (Result, error) {
	for _, ep := range eps {
		err := d.updateEpisode(ep.PodcastID, ep.ID, func(e *podcast.Episode) {
			e.Path = ""
		})
		if err != nil {
			return Result{}, err
		}
	}
	return Result{Changed: len(eps) > 0}, nil
}

func (d *Dispatcher) updateEpisode(podcastID, episodeID int64, fn func(*podcast.Episode)) error {
	p, ok := d.podcasts.GetByID(podcastID)
	if err := d.podcasts.Err(); err != nil {
		return err
	}
	if !ok || p.Episodes == nil {
		return nil
	}
	return p.Episodes.Update(func(tx *state.Txn[podcast.Episode]) error {
		ep, ok := tx.Get(episodeID)
		if !ok {
			return nil
		}
		fn(&ep)
		tx.Set(ep)
		return nil
	})
}

func failureText(evt backend.Event) string {
	switch job := evt.Data.(type) {
	case backend.SyncJob:
		return fmt.Sprintf("Error syncing %s: %v", job.URL, evt.Err)
	case backend.DownloadJob:
		return fmt.Sprintf("Error downloading %s: %v", job.Title, evt.Err)
	default:
		return fmt.Sprintf("Error: %v", evt.Err)
	}
}

func byTitle(a, b podcast.Podcast) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}
