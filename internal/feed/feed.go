// Package feed downloads podcast RSS feeds and turns them into plain
// values ready for storage.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "castaway/1.0"

// ErrStatus is returned when the feed server answers with a non-2xx code.
var ErrStatus = errors.New("unexpected http status")

// Feed is a parsed podcast feed.
type Feed struct {
	Title       string
	URL         string
	Description string
	Author      string
	Explicit    *bool
	Episodes    []Episode
}

// Episode is a parsed feed item with an audio enclosure.
type Episode struct {
	Title       string
	URL         string
	GUID        string
	Description string
	PubDate     *time.Time
	Duration    *int64
}

// Fetcher retrieves feeds over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher using client, or a client with timeout when
// client is nil.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client}
}

// Fetch downloads and parses the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Feed{}, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Feed{}, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Feed{}, fmt.Errorf("fetch feed %s: %w: %d", url, ErrStatus, resp.StatusCode)
	}
	return Parse(resp.Body, url)
}

// Parse reads an RSS or Atom document. url is recorded as the feed's
// source.
func Parse(r io.Reader, url string) (Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return Feed{}, fmt.Errorf("parse feed %s: %w", url, err)
	}
	out := Feed{
		Title:       strings.TrimSpace(parsed.Title),
		URL:         url,
		Description: StripHTML(parsed.Description),
	}
	if parsed.Author != nil {
		out.Author = parsed.Author.Name
	}
	if it := parsed.ITunesExt; it != nil {
		if out.Author == "" {
			out.Author = it.Author
		}
		out.Explicit = parseExplicit(it.Explicit)
	}
	if out.Title == "" {
		out.Title = url
	}

	for _, item := range parsed.Items {
		ep, ok := episodeFrom(item)
		if ok {
			out.Episodes = append(out.Episodes, ep)
		}
	}
	return out, nil
}

func episodeFrom(item *gofeed.Item) (Episode, bool) {
	if item == nil {
		return Episode{}, false
	}
	var enclosure string
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			enclosure = enc.URL
			break
		}
	}
	if enclosure == "" {
		return Episode{}, false
	}
	ep := Episode{
		Title:       strings.TrimSpace(item.Title),
		URL:         enclosure,
		GUID:        item.GUID,
		Description: StripHTML(firstNonEmpty(item.Description, item.Content)),
		PubDate:     item.PublishedParsed,
	}
	if ep.GUID == "" {
		ep.GUID = enclosure
	}
	if ep.Title == "" {
		ep.Title = enclosure
	}
	if item.ITunesExt != nil {
		ep.Duration = ParseDuration(item.ITunesExt.Duration)
	}
	return ep, true
}

// ParseDuration reads an itunes:duration value: plain seconds, MM:SS or
// HH:MM:SS. Unparseable values yield nil.
func ParseDuration(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return nil
	}
	var total int64
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	return &total
}

func parseExplicit(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "explicit":
		v = true
	case "no", "false", "clean":
		v = false
	default:
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
