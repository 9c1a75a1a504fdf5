// Package storage persists podcasts and episodes in a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atomicstack/castaway/internal/feed"
	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
)

var (
	// ErrDuplicateFeed is returned when subscribing to a URL twice.
	ErrDuplicateFeed = errors.New("feed already subscribed")
	// ErrNotFound is returned for unknown podcast or episode IDs.
	ErrNotFound = errors.New("not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; workers and the controller share the handle
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
PRAGMA foreign_keys = ON;
CREATE TABLE IF NOT EXISTS podcasts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  url TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  author TEXT NOT NULL DEFAULT '',
  explicit INTEGER,
  last_checked TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS episodes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  podcast_id INTEGER NOT NULL REFERENCES podcasts(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  guid TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  pubdate INTEGER,
  duration INTEGER,
  path TEXT NOT NULL DEFAULT '',
  played INTEGER NOT NULL DEFAULT 0,
  UNIQUE(podcast_id, guid)
);
CREATE INDEX IF NOT EXISTS idx_episodes_path ON episodes(path);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertPodcast subscribes to a parsed feed and stores its episodes. New
// subscriptions start with every episode unplayed.
func (r *Repository) InsertPodcast(ctx context.Context, f feed.Feed) (podcast.Podcast, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return podcast.Podcast{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM podcasts WHERE url = ?`, f.URL).Scan(&exists)
	if err != nil {
		return podcast.Podcast{}, fmt.Errorf("check feed %s: %w", f.URL, err)
	}
	if exists > 0 {
		return podcast.Podcast{}, fmt.Errorf("subscribe %s: %w", f.URL, ErrDuplicateFeed)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
INSERT INTO podcasts (title, url, description, author, explicit, last_checked)
VALUES (?, ?, ?, ?, ?, ?)
`, f.Title, f.URL, f.Description, f.Author, nullBool(f.Explicit), now.Format(time.RFC3339Nano))
	if err != nil {
		return podcast.Podcast{}, fmt.Errorf("insert podcast %s: %w", f.URL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return podcast.Podcast{}, fmt.Errorf("podcast id: %w", err)
	}
	if _, err := upsertEpisodes(ctx, tx, id, f.Episodes); err != nil {
		return podcast.Podcast{}, err
	}
	if err := tx.Commit(); err != nil {
		return podcast.Podcast{}, fmt.Errorf("commit tx: %w", err)
	}
	return r.GetPodcast(ctx, id)
}

// SyncResult reports what a feed refresh changed.
type SyncResult struct {
	Podcast podcast.Podcast
	Added   []podcast.Episode
	Updated int
}

// SyncPodcast refreshes a stored podcast from a newly parsed feed. Existing
// episodes keep their played state and downloaded file.
func (r *Repository) SyncPodcast(ctx context.Context, id int64, f feed.Feed) (SyncResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE podcasts SET title = ?, description = ?, author = ?, explicit = ?, last_checked = ?
WHERE id = ?
`, f.Title, f.Description, f.Author, nullBool(f.Explicit), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return SyncResult{}, fmt.Errorf("update podcast %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return SyncResult{}, fmt.Errorf("sync podcast %d: %w", id, ErrNotFound)
	}
	added, err := upsertEpisodes(ctx, tx, id, f.Episodes)
	if err != nil {
		return SyncResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SyncResult{}, fmt.Errorf("commit tx: %w", err)
	}

	p, err := r.GetPodcast(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	out := SyncResult{Podcast: p, Updated: len(f.Episodes) - len(added)}
	for _, newID := range added {
		if ep, ok := p.Episodes.GetByID(newID); ok {
			out.Added = append(out.Added, ep)
		}
	}
	return out, nil
}

func upsertEpisodes(ctx context.Context, tx *sql.Tx, podcastID int64, episodes []feed.Episode) ([]int64, error) {
	find, err := tx.PrepareContext(ctx, `SELECT id FROM episodes WHERE podcast_id = ? AND guid = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare lookup statement: %w", err)
	}
	defer find.Close()
	insert, err := tx.PrepareContext(ctx, `
INSERT INTO episodes (podcast_id, title, url, guid, description, pubdate, duration)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer insert.Close()
	update, err := tx.PrepareContext(ctx, `
UPDATE episodes SET title = ?, url = ?, description = ?, pubdate = ?, duration = ?
WHERE id = ?
`)
	if err != nil {
		return nil, fmt.Errorf("prepare update statement: %w", err)
	}
	defer update.Close()

	var added []int64
	for _, ep := range episodes {
		var id int64
		err := find.QueryRowContext(ctx, podcastID, ep.GUID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := insert.ExecContext(ctx, podcastID, ep.Title, ep.URL, ep.GUID, ep.Description, nullTime(ep.PubDate), nullInt(ep.Duration))
			if err != nil {
				return nil, fmt.Errorf("insert episode %q: %w", ep.GUID, err)
			}
			newID, err := res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("episode id: %w", err)
			}
			added = append(added, newID)
		case err != nil:
			return nil, fmt.Errorf("lookup episode %q: %w", ep.GUID, err)
		default:
			if _, err := update.ExecContext(ctx, ep.Title, ep.URL, ep.Description, nullTime(ep.PubDate), nullInt(ep.Duration), id); err != nil {
				return nil, fmt.Errorf("update episode %d: %w", id, err)
			}
		}
	}
	return added, nil
}

// GetPodcast loads one podcast with its episodes.
func (r *Repository) GetPodcast(ctx context.Context, id int64) (podcast.Podcast, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, url, description, author, explicit, last_checked FROM podcasts WHERE id = ?
`, id)
	p, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return podcast.Podcast{}, fmt.Errorf("podcast %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return podcast.Podcast{}, err
	}
	episodes, err := r.ListEpisodes(ctx, id)
	if err != nil {
		return podcast.Podcast{}, err
	}
	p.Episodes = state.NewStore(episodes)
	podcast.RefreshUnplayed(&p)
	return p, nil
}

// ListPodcasts loads every podcast, sorted by title, each with its
// episodes newest first.
func (r *Repository) ListPodcasts(ctx context.Context) ([]podcast.Podcast, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, url, description, author, explicit, last_checked
FROM podcasts
ORDER BY title COLLATE NOCASE, id
`)
	if err != nil {
		return nil, fmt.Errorf("query podcasts: %w", err)
	}
	var podcasts []podcast.Podcast
	for rows.Next() {
		p, err := scanPodcast(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		podcasts = append(podcasts, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate podcasts: %w", err)
	}
	rows.Close()

	for i := range podcasts {
		episodes, err := r.ListEpisodes(ctx, podcasts[i].ID)
		if err != nil {
			return nil, err
		}
		podcasts[i].Episodes = state.NewStore(episodes)
		podcast.RefreshUnplayed(&podcasts[i])
	}
	return podcasts, nil
}

// ListEpisodes loads a podcast's episodes, newest first.
func (r *Repository) ListEpisodes(ctx context.Context, podcastID int64) ([]podcast.Episode, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, podcast_id, title, url, guid, description, pubdate, duration, path, played
FROM episodes
WHERE podcast_id = ?
ORDER BY pubdate IS NULL, pubdate DESC, id DESC
`, podcastID)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []podcast.Episode
	for rows.Next() {
		var (
			ep       podcast.Episode
			pubdate  sql.NullInt64
			duration sql.NullInt64
			played   int
		)
		if err := rows.Scan(&ep.ID, &ep.PodcastID, &ep.Title, &ep.URL, &ep.GUID, &ep.Description, &pubdate, &duration, &ep.Path, &played); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if pubdate.Valid {
			t := time.Unix(pubdate.Int64, 0).UTC()
			ep.PubDate = &t
		}
		if duration.Valid {
			d := duration.Int64
			ep.Duration = &d
		}
		ep.Played = played != 0
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

// SetPlayed records the played flag of one episode.
func (r *Repository) SetPlayed(ctx context.Context, episodeID int64, played bool) error {
	return r.execOne(ctx, fmt.Sprintf("episode %d", episodeID),
		`UPDATE episodes SET played = ? WHERE id = ?`, boolInt(played), episodeID)
}

// SetPodcastPlayed records the played flag of every episode of a podcast.
func (r *Repository) SetPodcastPlayed(ctx context.Context, podcastID int64, played bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE episodes SET played = ? WHERE podcast_id = ?`, boolInt(played), podcastID)
	if err != nil {
		return fmt.Errorf("mark podcast %d: %w", podcastID, err)
	}
	return nil
}

// SetPath records where an episode was downloaded. An empty path marks it
// as not downloaded.
func (r *Repository) SetPath(ctx context.Context, episodeID int64, path string) error {
	return r.execOne(ctx, fmt.Sprintf("episode %d", episodeID),
		`UPDATE episodes SET path = ? WHERE id = ?`, path, episodeID)
}

// ClearPath forgets a downloaded file and returns the affected episodes.
func (r *Repository) ClearPath(ctx context.Context, path string) ([]podcast.Episode, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, podcast_id FROM episodes WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("query path %s: %w", path, err)
	}
	var cleared []podcast.Episode
	for rows.Next() {
		var ep podcast.Episode
		if err := rows.Scan(&ep.ID, &ep.PodcastID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan path owner: %w", err)
		}
		cleared = append(cleared, ep)
	}
	rows.Close()
	if len(cleared) == 0 {
		return nil, nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE episodes SET path = '' WHERE path = ?`, path); err != nil {
		return nil, fmt.Errorf("clear path %s: %w", path, err)
	}
	return cleared, nil
}

func (r *Repository) execOne(ctx context.Context, what, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", what, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPodcast(s scanner) (podcast.Podcast, error) {
	var (
		p           podcast.Podcast
		explicit    sql.NullInt64
		lastChecked string
	)
	if err := s.Scan(&p.ID, &p.Title, &p.URL, &p.Description, &p.Author, &explicit, &lastChecked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan podcast: %w", err)
	}
	if explicit.Valid {
		v := explicit.Int64 != 0
		p.Explicit = &v
	}
	t, err := time.Parse(time.RFC3339Nano, lastChecked)
	if err != nil {
		return p, fmt.Errorf("parse podcast last_checked %q: %w", lastChecked, err)
	}
	p.LastChecked = t
	return p, nil
}

func nullBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return boolInt(*b)
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullInt(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
