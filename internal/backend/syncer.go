package backend

import (
	"fmt"

	"github.com/atomicstack/castaway/internal/logging/events"
)

// SyncJob asks for one feed to be fetched. A zero PodcastID subscribes to
// a new feed.
type SyncJob struct {
	PodcastID int64
	URL       string
}

// Sync queues a feed fetch. It reports false once the workers are stopped.
func (w *Workers) Sync(job SyncJob) bool {
	events.Sync.Queue(job.PodcastID, job.URL)
	return w.spawn(func() { w.runSync(job) })
}

func (w *Workers) runSync(job SyncJob) {
	if !acquire(w.ctx, w.syncSem) {
		return
	}
	defer func() { <-w.syncSem }()
	if !w.syncGap.wait(w.ctx) {
		return
	}

	f, err := w.fetcher.Fetch(w.ctx, job.URL)
	if err != nil {
		if w.ctx.Err() != nil {
			return
		}
		events.Sync.Error(job.URL, err)
		w.emit(Event{Kind: kindFor(job), Data: job, Err: err})
		return
	}

	if job.PodcastID == 0 {
		p, err := w.store.InsertPodcast(w.ctx, f)
		if err != nil {
			events.Sync.Error(job.URL, err)
			w.emit(Event{Kind: KindFeedAdded, Data: job, Err: fmt.Errorf("subscribe: %w", err)})
			return
		}
		events.Sync.Done(p.ID, len(f.Episodes))
		w.emit(Event{Kind: KindFeedAdded, Data: p})
		return
	}

	res, err := w.store.SyncPodcast(w.ctx, job.PodcastID, f)
	if err != nil {
		events.Sync.Error(job.URL, err)
		w.emit(Event{Kind: KindFeedSynced, Data: job, Err: err})
		return
	}
	events.Sync.Done(job.PodcastID, len(res.Added))
	w.emit(Event{Kind: KindFeedSynced, Data: res})
}

func kindFor(job SyncJob) Kind {
	if job.PodcastID == 0 {
		return KindFeedAdded
	}
	return KindFeedSynced
}
