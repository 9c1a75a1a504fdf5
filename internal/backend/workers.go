package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/atomicstack/castaway/internal/feed"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/storage"
)

// Kind represents the type of result emitted by the workers.
type Kind int

const (
	KindFeedAdded Kind = iota
	KindFeedSynced
	KindDownloaded
	KindFileRemoved
)

func (k Kind) String() string {
	switch k {
	case KindFeedAdded:
		return "feed-added"
	case KindFeedSynced:
		return "feed-synced"
	case KindDownloaded:
		return "downloaded"
	case KindFileRemoved:
		return "file-removed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event conveys the outcome of one job. Data holds the job on failure and
// the result on success.
type Event struct {
	Kind Kind
	Data interface{}
	Err  error
}

// Fetcher retrieves and parses a feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (feed.Feed, error)
}

// Store is the persistence the workers write results to.
type Store interface {
	InsertPodcast(ctx context.Context, f feed.Feed) (podcast.Podcast, error)
	SyncPodcast(ctx context.Context, id int64, f feed.Feed) (storage.SyncResult, error)
	SetPath(ctx context.Context, episodeID int64, path string) error
	ClearPath(ctx context.Context, path string) ([]podcast.Episode, error)
}

// Options sizes the worker pools.
type Options struct {
	DownloadDir  string
	MaxSyncs     int
	MaxDownloads int
	// SyncSpacing is the minimum delay between two feed requests.
	SyncSpacing time.Duration
	Client      *http.Client
	// Watch enables the download directory watcher.
	Watch bool
}

// Workers runs feed syncs and downloads on bounded goroutine pools and
// publishes their results.
type Workers struct {
	opts    Options
	fetcher Fetcher
	store   Store
	client  *http.Client

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	tasks   map[string]*Task

	syncSem     chan struct{}
	downloadSem chan struct{}
	syncGap     *throttle

	events chan Event
	wg     sync.WaitGroup
}

// New starts the worker pools. The directory watcher is started when
// opts.Watch is set.
func New(opts Options, fetcher Fetcher, store Store) (*Workers, error) {
	if opts.MaxSyncs < 1 {
		opts.MaxSyncs = 1
	}
	if opts.MaxDownloads < 1 {
		opts.MaxDownloads = 1
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Workers{
		opts:        opts,
		fetcher:     fetcher,
		store:       store,
		client:      client,
		ctx:         ctx,
		cancel:      cancel,
		tasks:       make(map[string]*Task),
		syncSem:     make(chan struct{}, opts.MaxSyncs),
		downloadSem: make(chan struct{}, opts.MaxDownloads),
		syncGap:     newThrottle(opts.SyncSpacing),
		events:      make(chan Event, 16),
	}

	if opts.Watch {
		if err := w.startDirWatcher(); err != nil {
			cancel()
			return nil, err
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		<-w.ctx.Done()
	}()
	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w, nil
}

// Events returns a channel of worker results. It is closed once Stop was
// called and every worker has exited.
func (w *Workers) Events() <-chan Event {
	return w.events
}

// Stop cancels the workers. Queued jobs are skipped and running jobs end at
// their next cancellation point; use Wait for a clean drain.
func (w *Workers) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.cancel()
}

// Wait blocks until every worker goroutine has exited.
func (w *Workers) Wait() {
	w.wg.Wait()
}

// spawn runs fn on a new goroutine unless the workers were stopped.
func (w *Workers) spawn(fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
	return true
}

func (w *Workers) emit(evt Event) bool {
	select {
	case <-w.ctx.Done():
		return false
	case w.events <- evt:
		return true
	}
}

func acquire(ctx context.Context, sem chan struct{}) bool {
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}
