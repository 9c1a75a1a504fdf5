package events

import "github.com/atomicstack/castaway/internal/logging"

type SyncTracer struct{}

type DownloadTracer struct{}

type WatchTracer struct{}

var (
	Sync     = SyncTracer{}
	Download = DownloadTracer{}
	Watch    = WatchTracer{}
)

func (SyncTracer) Queue(podcastID int64, url string) {
	logging.Trace("sync.queue", map[string]interface{}{"podcast": podcastID, "url": url})
}

func (SyncTracer) Done(podcastID int64, episodes int) {
	logging.Trace("sync.done", map[string]interface{}{"podcast": podcastID, "episodes": episodes})
}

func (SyncTracer) Error(url string, err error) {
	logging.Trace("sync.error", map[string]interface{}{"url": url, "error": err.Error()})
}

func (DownloadTracer) Queue(task string, episodeID int64, url string) {
	logging.Trace("download.queue", map[string]interface{}{"task": task, "episode": episodeID, "url": url})
}

func (DownloadTracer) Done(task string, path string, bytes int64) {
	logging.Trace("download.done", map[string]interface{}{"task": task, "path": path, "bytes": bytes})
}

func (DownloadTracer) Error(task string, err error) {
	logging.Trace("download.error", map[string]interface{}{"task": task, "error": err.Error()})
}

func (WatchTracer) Removed(path string) {
	logging.Trace("watch.removed", map[string]interface{}{"path": path})
}
