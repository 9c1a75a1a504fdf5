package controller

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/castaway/internal/backend"
	"github.com/atomicstack/castaway/internal/logging"
	"github.com/atomicstack/castaway/internal/message"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
	"github.com/atomicstack/castaway/internal/storage"
	"github.com/atomicstack/castaway/internal/testutil"
)

type fakeRepo struct {
	mu         sync.Mutex
	played     map[int64]bool
	podPlayed  map[int64]bool
	failPlayed error
	crash      bool
}

func (r *fakeRepo) SetPlayed(_ context.Context, id int64, played bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPlayed != nil {
		return r.failPlayed
	}
	r.played[id] = played
	return nil
}

func (r *fakeRepo) SetPodcastPlayed(_ context.Context, id int64, played bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.crash {
		panic("repository crashed")
	}
	r.podPlayed[id] = played
	return nil
}

type fakeWorkers struct {
	mu        sync.Mutex
	syncs     []backend.SyncJob
	downloads []backend.DownloadJob
	stopped   bool
	events    chan backend.Event
}

func (w *fakeWorkers) Sync(job backend.SyncJob) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.syncs = append(w.syncs, job)
	return !w.stopped
}

func (w *fakeWorkers) Download(job backend.DownloadJob) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.downloads = append(w.downloads, job)
	return "task"
}

func (w *fakeWorkers) Events() <-chan backend.Event { return w.events }

func (w *fakeWorkers) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

func (w *fakeWorkers) snapshot() ([]backend.SyncJob, []backend.DownloadJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]backend.SyncJob(nil), w.syncs...), append([]backend.DownloadJob(nil), w.downloads...), w.stopped
}

type fakePlayer struct {
	mu      sync.Mutex
	targets []string
	err     error
	crash   bool
}

func (p *fakePlayer) Play(target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.crash {
		panic("player crashed on " + target)
	}
	if p.err != nil {
		return p.err
	}
	p.targets = append(p.targets, target)
	return nil
}

type harness struct {
	t       *testing.T
	pods    *state.Store[podcast.Podcast]
	ch      message.Channels
	repo    *fakeRepo
	workers *fakeWorkers
	player  *fakePlayer
	done    chan error
}

func start(t *testing.T, pods *state.Store[podcast.Podcast]) *harness {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "castaway.log"))
	h := &harness{
		t:       t,
		pods:    pods,
		ch:      message.NewChannels(),
		repo:    &fakeRepo{played: map[int64]bool{}, podPlayed: map[int64]bool{}},
		workers: &fakeWorkers{events: make(chan backend.Event, 8)},
		player:  &fakePlayer{},
		done:    make(chan error, 1),
	}
	c := New(pods, h.ch, h.repo, h.workers, h.player, Options{MessageDuration: time.Second, AutoPick: true})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { h.done <- c.Run(ctx) }()
	return h
}

func (h *harness) send(intent message.Intent) {
	h.ch.Intents.Send(intent)
}

func (h *harness) next() message.Directive {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	d, err := h.ch.Directives.Recv(ctx)
	if err != nil {
		h.t.Fatalf("waiting for directive: %v", err)
	}
	return d
}

func (h *harness) quit() error {
	h.t.Helper()
	h.send(message.Quit{})
	for {
		if td, ok := h.next().(message.TearDown); ok {
			if td.Err != nil {
				h.t.Fatalf("unexpected teardown error %v", td.Err)
			}
			break
		}
	}
	select {
	case err := <-h.done:
		return err
	case <-time.After(3 * time.Second):
		h.t.Fatalf("controller did not return")
	}
	return nil
}

func TestSetPlayedUpdatesStoreAndRepository(t *testing.T) {
	pods := testutil.Library(2, 2)
	h := start(t, pods)

	h.send(message.SetPlayed{Podcast: 1, Episode: 0, Played: true})
	if _, ok := h.next().(message.RefreshMenus); !ok {
		t.Fatalf("expected refresh")
	}
	p, _ := pods.Get(1)
	ep, _ := p.Episodes.Get(0)
	if !ep.Played {
		t.Fatalf("expected episode marked played")
	}
	if !h.repo.played[ep.ID] {
		t.Fatalf("expected repository write for %d", ep.ID)
	}
	if !p.AnyUnplayed {
		t.Fatalf("expected podcast to still have unplayed episodes")
	}

	h.send(message.SetPlayed{Podcast: 1, Episode: 1, Played: true})
	h.next()
	p, _ = pods.Get(1)
	if p.AnyUnplayed {
		t.Fatalf("expected podcast fully played")
	}

	if err := h.quit(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, _, stopped := h.workers.snapshot(); !stopped {
		t.Fatalf("expected workers stopped on quit")
	}
}

func TestSetAllPlayedMarksEveryEpisode(t *testing.T) {
	pods := testutil.Library(1, 3)
	h := start(t, pods)

	h.send(message.SetAllPlayed{Podcast: 0, Played: true})
	h.next()
	p, _ := pods.Get(0)
	for _, ep := range p.Episodes.Entries() {
		if !ep.Played {
			t.Fatalf("expected %s played", ep.Title)
		}
	}
	if p.AnyUnplayed || !h.repo.podPlayed[p.ID] {
		t.Fatalf("expected podcast marked played")
	}
	h.quit()
}

func TestRepositoryFailureKeepsStore(t *testing.T) {
	pods := testutil.Library(1, 1)
	h := start(t, pods)
	h.repo.failPlayed = errors.New("disk full")

	h.send(message.SetPlayed{Podcast: 0, Episode: 0, Played: true})
	msg, ok := h.next().(message.ShowMessage)
	if !ok || !msg.IsError || !strings.Contains(msg.Text, "disk full") {
		t.Fatalf("expected error message, got %+v", msg)
	}
	p, _ := pods.Get(0)
	ep, _ := p.Episodes.Get(0)
	if ep.Played {
		t.Fatalf("expected store unchanged after failed write")
	}
	h.quit()
}

func TestInvalidPositionReportsError(t *testing.T) {
	h := start(t, testutil.Library(1, 1))
	h.send(message.Play{Podcast: 0, Episode: 5})
	msg, ok := h.next().(message.ShowMessage)
	if !ok || !msg.IsError || !strings.Contains(msg.Text, state.ErrInvalidIndex.Error()) {
		t.Fatalf("expected invalid index message, got %+v", msg)
	}
	h.quit()
}

func TestPlayPrefersDownloadedFile(t *testing.T) {
	eps := testutil.Episodes(1, "Ep", 2)
	eps[1].Path = "/music/ep2.mp3"
	pods := state.NewStore([]podcast.Podcast{testutil.Podcast(1, "Show", eps)})
	h := start(t, pods)

	h.send(message.Play{Podcast: 0, Episode: 0})
	h.next()
	h.send(message.Play{Podcast: 0, Episode: 1})
	msg, _ := h.next().(message.ShowMessage)
	if msg.Text != "Playing Ep 2" {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	want := []string{eps[0].URL, "/music/ep2.mp3"}
	if len(h.player.targets) != 2 || h.player.targets[0] != want[0] || h.player.targets[1] != want[1] {
		t.Fatalf("expected targets %v, got %v", want, h.player.targets)
	}
	h.quit()
}

func TestSyncQueuesJobs(t *testing.T) {
	pods := testutil.Library(3, 0)
	h := start(t, pods)

	h.send(message.SyncOne{Podcast: 2})
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Syncing Podcast 03..." {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	h.send(message.SyncAll{})
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Syncing 3 podcasts..." {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	syncs, _, _ := h.workers.snapshot()
	if len(syncs) != 4 || syncs[0].PodcastID != 3 || syncs[0].URL == "" {
		t.Fatalf("unexpected sync jobs %+v", syncs)
	}
	h.quit()
}

func TestAddFeedValidatesURL(t *testing.T) {
	h := start(t, testutil.Library(0, 0))

	h.send(message.AddFeed{URL: "   "})
	if msg, _ := h.next().(message.ShowMessage); !msg.IsError {
		t.Fatalf("expected error for empty url")
	}
	h.send(message.AddFeed{URL: "ftp://example.com/feed"})
	if msg, _ := h.next().(message.ShowMessage); !msg.IsError {
		t.Fatalf("expected error for unsupported scheme")
	}
	h.send(message.AddFeed{URL: " https://example.com/feed.xml "})
	if msg, _ := h.next().(message.ShowMessage); msg.IsError {
		t.Fatalf("unexpected error %q", msg.Text)
	}
	syncs, _, _ := h.workers.snapshot()
	if len(syncs) != 1 || syncs[0].PodcastID != 0 || syncs[0].URL != "https://example.com/feed.xml" {
		t.Fatalf("unexpected jobs %+v", syncs)
	}
	h.quit()
}

func TestDownloadsSkipFilesOnDisk(t *testing.T) {
	eps := testutil.Episodes(1, "Ep", 3)
	eps[0].Path = "/music/ep1.mp3"
	pods := state.NewStore([]podcast.Podcast{testutil.Podcast(1, "Show", eps)})
	h := start(t, pods)

	h.send(message.DownloadOne{Podcast: 0, Episode: 0})
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Ep 1 is already downloaded" {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	h.send(message.DownloadAll{Podcast: 0})
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Downloading 2 episodes of Show..." {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	h.send(message.DownloadSelected{Picks: []message.Pick{
		{PodcastID: 1, EpisodeID: eps[2].ID},
		{PodcastID: 1, EpisodeID: eps[0].ID},
		{PodcastID: 9, EpisodeID: 1},
	}})
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Downloading 1 new episodes..." {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	_, downloads, _ := h.workers.snapshot()
	if len(downloads) != 3 {
		t.Fatalf("expected 3 download jobs, got %+v", downloads)
	}
	last := downloads[2]
	if last.EpisodeID != eps[2].ID || last.PodcastTitle != "Show" || last.URL != eps[2].URL {
		t.Fatalf("unexpected job %+v", last)
	}
	h.quit()
}

func TestWorkerResultsBecomeDirectives(t *testing.T) {
	pods := testutil.Library(1, 1)
	h := start(t, pods)
	p, _ := pods.Get(0)

	fresh := testutil.Podcast(p.ID, p.Title, append(testutil.Episodes(p.ID, "Episode", 1), podcast.Episode{ID: 77, PodcastID: p.ID, Title: "Brand new"}))
	h.workers.events <- backend.Event{Kind: backend.KindFeedSynced, Data: storage.SyncResult{
		Podcast: fresh,
		Added:   []podcast.Episode{{ID: 77, PodcastID: p.ID, Title: "Brand new"}},
	}}

	if _, ok := h.next().(message.RefreshMenus); !ok {
		t.Fatalf("expected refresh first")
	}
	if msg, _ := h.next().(message.ShowMessage); msg.Text != "Synced Podcast 01: 1 new" {
		t.Fatalf("unexpected message %q", msg.Text)
	}
	pick, ok := h.next().(message.PickNewEpisodes)
	if !ok || len(pick.Episodes) != 1 || pick.Episodes[0].ID != 77 {
		t.Fatalf("expected picker directive, got %+v", pick)
	}
	if p.Episodes.Len() != 2 {
		t.Fatalf("expected merged episodes in shared store, got %d", p.Episodes.Len())
	}

	h.workers.events <- backend.Event{Kind: backend.KindFeedSynced, Data: backend.SyncJob{PodcastID: 1, URL: "https://x"}, Err: errors.New("timeout")}
	msg, _ := h.next().(message.ShowMessage)
	if !msg.IsError || msg.Text != "Error syncing https://x: timeout" {
		t.Fatalf("unexpected failure message %+v", msg)
	}
	h.quit()
}

func TestPoisonedStoreTearsDown(t *testing.T) {
	pods := testutil.Library(1, 1)
	func() {
		defer func() { _ = recover() }()
		_ = pods.Update(func(*state.Txn[podcast.Podcast]) error { panic("boom") })
	}()
	h := start(t, pods)

	h.send(message.SyncOne{Podcast: 0})
	td, ok := h.next().(message.TearDown)
	if !ok || !errors.Is(td.Err, state.ErrLockPoisoned) {
		t.Fatalf("expected teardown with poisoning, got %+v", td)
	}
	select {
	case err := <-h.done:
		if !errors.Is(err, state.ErrLockPoisoned) {
			t.Fatalf("expected run to return poisoning, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("controller did not return")
	}
	if _, _, stopped := h.workers.snapshot(); !stopped {
		t.Fatalf("expected workers stopped")
	}
}

func TestPanicInHandlerTearsDown(t *testing.T) {
	h := start(t, testutil.Library(1, 1))
	h.player.mu.Lock()
	h.player.crash = true
	h.player.mu.Unlock()

	h.send(message.Play{Podcast: 0, Episode: 0})
	td, ok := h.next().(message.TearDown)
	if !ok || !errors.Is(td.Err, ErrPanicked) {
		t.Fatalf("expected teardown after panic, got %+v", td)
	}
	select {
	case err := <-h.done:
		if !errors.Is(err, ErrPanicked) || !strings.Contains(err.Error(), "player crashed") {
			t.Fatalf("expected run to return the panic, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("controller did not return")
	}
	if _, _, stopped := h.workers.snapshot(); !stopped {
		t.Fatalf("expected workers stopped")
	}
}

func TestPanicInRepositoryTearsDown(t *testing.T) {
	h := start(t, testutil.Library(1, 2))
	h.repo.mu.Lock()
	h.repo.crash = true
	h.repo.mu.Unlock()

	h.send(message.SetAllPlayed{Podcast: 0, Played: true})
	td, ok := h.next().(message.TearDown)
	if !ok || !errors.Is(td.Err, ErrPanicked) {
		t.Fatalf("expected teardown after panic, got %+v", td)
	}
	select {
	case err := <-h.done:
		if !errors.Is(err, ErrPanicked) {
			t.Fatalf("expected run to return the panic, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("controller did not return")
	}
	p, _ := h.pods.Get(0)
	if played, _ := p.Counts(); played != 0 {
		t.Fatalf("expected episodes untouched, got %d played", played)
	}
}

func TestClosedIntentQueueStops(t *testing.T) {
	h := start(t, testutil.Library(0, 0))
	h.ch.Intents.Close()
	if _, ok := h.next().(message.TearDown); !ok {
		t.Fatalf("expected teardown")
	}
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("controller did not return")
	}
}
