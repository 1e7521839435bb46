package normalize

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/yourusername/nyaa-go/internal/domain"
)

const nyaaNamespace = "nyaa"

// ParseRSS parses an RSS feed carrying the nyaa: item extensions
func ParseRSS(raw *domain.RawPayload) (*domain.Page, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, &domain.ParseError{Source: domain.SourceRSS, Reason: "invalid feed", Err: err}
	}
	if !hasChannel(feed) {
		return nil, &domain.ParseError{Source: domain.SourceRSS, Reason: "feed has no channel"}
	}

	page := &domain.Page{
		Items:     []domain.ResultItem{},
		Number:    pageNumber(raw.Query),
		Source:    domain.SourceRSS,
		FetchedAt: raw.FetchedAt,
	}

	for i, entry := range feed.Items {
		if entry == nil {
			continue
		}
		item, reason := parseEntry(entry, raw)
		if reason != "" {
			page.Dropped = append(page.Dropped, domain.DroppedItem{Index: i, Title: item.Title, Reason: reason})
			continue
		}
		page.Items = append(page.Items, item)
	}

	return page, nil
}

// hasChannel reports whether the feed carried a channel element. gofeed
// returns an empty feed for an rss root without one.
func hasChannel(feed *gofeed.Feed) bool {
	if feed.FeedType != "rss" {
		return true
	}
	return feed.Title != "" || feed.Link != "" || feed.Description != "" || len(feed.Items) > 0
}

func parseEntry(entry *gofeed.Item, raw *domain.RawPayload) (domain.ResultItem, string) {
	nyaa := entry.Extensions[nyaaNamespace]

	item := domain.ResultItem{
		Title:     strings.TrimSpace(entry.Title),
		InfoHash:  extValue(nyaa, "infoHash"),
		Seeders:   parseCount(extValue(nyaa, "seeders")),
		Leechers:  parseCount(extValue(nyaa, "leechers")),
		Downloads: parseCount(extValue(nyaa, "downloads")),
		Trusted:   strings.EqualFold(extValue(nyaa, "trusted"), "yes"),
		Remake:    strings.EqualFold(extValue(nyaa, "remake"), "yes"),
	}

	link := strings.TrimSpace(entry.Link)
	if strings.HasPrefix(link, "magnet:") {
		item.Magnet = link
	} else {
		item.TorrentURL = link
	}
	if guid := strings.TrimSpace(entry.GUID); strings.HasPrefix(guid, "http") {
		item.ViewURL = guid
	}

	if item.Magnet == "" && item.InfoHash != "" {
		if magnet, err := MagnetFromHash(item.InfoHash, item.Title); err == nil {
			item.Magnet = magnet
		}
	}

	item.Category = domain.LookupCategory(extValue(nyaa, "categoryId"))
	if item.Category == domain.CategoryOther {
		item.Category = domain.LookupCategory(extValue(nyaa, "category"))
	}

	size, ok := ParseSize(extValue(nyaa, "size"))
	item.Size = size
	item.SizeUnknown = !ok

	published, err := ResolveDate(entry.Published, raw.FetchedAt)
	if err != nil {
		return item, "unparseable date: " + err.Error()
	}
	item.Published = published

	if reason := finishItem(&item); reason != "" {
		return item, reason
	}
	return item, ""
}

func extValue(values map[string][]ext.Extension, name string) string {
	if values == nil {
		return ""
	}
	for _, e := range values[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
