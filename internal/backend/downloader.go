package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/atomicstack/castaway/internal/logging/events"
)

// ErrDownloadStatus is returned when the enclosure server answers with a
// non-2xx code.
var ErrDownloadStatus = errors.New("unexpected download status")

// DownloadJob asks for one episode's enclosure to be saved.
type DownloadJob struct {
	PodcastID    int64
	EpisodeID    int64
	PodcastTitle string
	Title        string
	URL          string
}

// TaskStatus is the lifecycle state of a download.
type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskDownloading TaskStatus = "downloading"
	TaskCompleted   TaskStatus = "completed"
	TaskFailed      TaskStatus = "failed"
)

// Task tracks one download.
type Task struct {
	ID         string
	Job        DownloadJob
	Status     TaskStatus
	Bytes      int64
	Path       string
	LastError  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// DownloadResult is the Data of a successful KindDownloaded event.
type DownloadResult struct {
	Task      string
	PodcastID int64
	EpisodeID int64
	Title     string
	Path      string
	Bytes     int64
}

// Size renders the downloaded size for people.
func (r DownloadResult) Size() string {
	return humanize.Bytes(uint64(r.Bytes))
}

// Download queues an episode download and returns its task ID. The ID is
// empty once the workers are stopped.
func (w *Workers) Download(job DownloadJob) string {
	task := &Task{ID: uuid.NewString(), Job: job, Status: TaskPending, StartedAt: time.Now()}
	w.mu.Lock()
	w.tasks[task.ID] = task
	w.mu.Unlock()

	events.Download.Queue(task.ID, job.EpisodeID, job.URL)
	if !w.spawn(func() { w.runDownload(task) }) {
		w.setStatus(task, TaskFailed, "stopped")
		return ""
	}
	return task.ID
}

// Tasks returns a snapshot of every download started so far.
func (w *Workers) Tasks() []Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Task, 0, len(w.tasks))
	for _, t := range w.tasks {
		out = append(out, *t)
	}
	return out
}

// Active returns the number of downloads not yet finished.
func (w *Workers) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, t := range w.tasks {
		if t.Status == TaskPending || t.Status == TaskDownloading {
			n++
		}
	}
	return n
}

func (w *Workers) setStatus(task *Task, status TaskStatus, lastErr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	task.Status = status
	task.LastError = lastErr
	if status == TaskCompleted || status == TaskFailed {
		task.FinishedAt = time.Now()
	}
}

func (w *Workers) runDownload(task *Task) {
	if !acquire(w.ctx, w.downloadSem) {
		w.setStatus(task, TaskFailed, "stopped")
		return
	}
	defer func() { <-w.downloadSem }()
	w.setStatus(task, TaskDownloading, "")

	dest, n, err := w.fetchEnclosure(task)
	if err == nil {
		err = w.store.SetPath(w.ctx, task.Job.EpisodeID, dest)
	}
	if err != nil {
		w.setStatus(task, TaskFailed, err.Error())
		if w.ctx.Err() != nil {
			return
		}
		events.Download.Error(task.ID, err)
		w.emit(Event{Kind: KindDownloaded, Data: task.Job, Err: err})
		return
	}

	w.mu.Lock()
	task.Bytes = n
	task.Path = dest
	w.mu.Unlock()
	w.setStatus(task, TaskCompleted, "")
	events.Download.Done(task.ID, dest, n)
	w.emit(Event{Kind: KindDownloaded, Data: DownloadResult{
		Task:      task.ID,
		PodcastID: task.Job.PodcastID,
		EpisodeID: task.Job.EpisodeID,
		Title:     task.Job.Title,
		Path:      dest,
		Bytes:     n,
	}})
}

// fetchEnclosure streams the file into a partial file next to its final
// name and renames it once complete.
func (w *Workers) fetchEnclosure(task *Task) (string, int64, error) {
	job := task.Job
	dir := filepath.Join(w.opts.DownloadDir, SafeName(job.PodcastTitle))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(dir, SafeName(job.Title)+extension(job.URL))
	part := dest + "." + task.ID + ".part"

	req, err := newRequest(w, job.URL)
	if err != nil {
		return "", 0, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download %s: %w", job.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("download %s: %w: %d", job.URL, ErrDownloadStatus, resp.StatusCode)
	}

	f, err := os.Create(part)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", part, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		return "", 0, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return "", 0, fmt.Errorf("finish %s: %w", dest, err)
	}
	return dest, n, nil
}

func newRequest(w *Workers, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(w.ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", "castaway/1.0")
	return req, nil
}

// SafeName turns a title into a file name without path separators or
// control characters.
func SafeName(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r < 0x20, r == 0x7f:
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Trim(b.String(), ". ")
	if name == "" {
		return "untitled"
	}
	if len(name) > 120 {
		name = strings.ToValidUTF8(name[:120], "")
	}
	return name
}

func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".mp3"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 5 {
		return ".mp3"
	}
	return ext
}
