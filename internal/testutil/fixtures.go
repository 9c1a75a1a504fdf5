// Package testutil builds podcast fixtures and feed servers for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atomicstack/castaway/internal/podcast"
	"github.com/atomicstack/castaway/internal/state"
)

// Episodes returns n episodes of podcastID titled "<prefix> 1".."<prefix> n".
// IDs are podcastID*1000+i so they never collide across podcasts.
func Episodes(podcastID int64, prefix string, n int) []podcast.Episode {
	eps := make([]podcast.Episode, n)
	for i := range eps {
		eps[i] = podcast.Episode{
			ID:        podcastID*1000 + int64(i+1),
			PodcastID: podcastID,
			Title:     fmt.Sprintf("%s %d", prefix, i+1),
			URL:       fmt.Sprintf("https://example.com/%d/%d.mp3", podcastID, i+1),
		}
	}
	return eps
}

// Podcast wraps eps into a podcast with its own episode store and a
// current unplayed flag.
func Podcast(id int64, title string, eps []podcast.Episode) podcast.Podcast {
	p := podcast.Podcast{
		ID:       id,
		Title:    title,
		URL:      fmt.Sprintf("https://example.com/%d/feed.xml", id),
		Episodes: state.NewStore(eps),
	}
	podcast.RefreshUnplayed(&p)
	return p
}

// Library builds a podcast store of n podcasts with perPodcast episodes
// each, titled "Podcast 01".. so they sort in store order.
func Library(n, perPodcast int) *state.Store[podcast.Podcast] {
	pods := make([]podcast.Podcast, n)
	for i := range pods {
		id := int64(i + 1)
		pods[i] = Podcast(id, fmt.Sprintf("Podcast %02d", i+1), Episodes(id, "Episode", perPodcast))
	}
	return state.NewStore(pods)
}

// Item is one entry of a generated RSS document.
type Item struct {
	Title     string
	GUID      string
	Enclosure string
	PubDate   string
	Duration  string
}

// RSS renders a minimal podcast feed.
func RSS(title string, items ...Item) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"><channel>`)
	fmt.Fprintf(&b, "<title>%s</title>", title)
	for _, it := range items {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title>", it.Title)
		if it.GUID != "" {
			fmt.Fprintf(&b, "<guid>%s</guid>", it.GUID)
		}
		if it.PubDate != "" {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", it.PubDate)
		}
		if it.Duration != "" {
			fmt.Fprintf(&b, "<itunes:duration>%s</itunes:duration>", it.Duration)
		}
		if it.Enclosure != "" {
			fmt.Fprintf(&b, `<enclosure url="%s" length="1" type="audio/mpeg"/>`, it.Enclosure)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

// FeedServer serves body as an RSS document on every path. The server is
// closed when the test ends.
func FeedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
