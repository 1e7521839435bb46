package domain

import (
	"sort"
	"strings"
	"time"
)

// ResultItem is a single normalized search result
type ResultItem struct {
	Title       string    `json:"title"`
	Magnet      string    `json:"magnet,omitempty"`
	TorrentURL  string    `json:"torrent_url,omitempty"`
	ViewURL     string    `json:"view_url,omitempty"`
	InfoHash    string    `json:"info_hash,omitempty"`
	Size        int64     `json:"size"`
	SizeUnknown bool      `json:"size_unknown,omitempty"`
	Seeders     int       `json:"seeders"`
	Leechers    int       `json:"leechers"`
	Downloads   int       `json:"downloads"`
	Published   time.Time `json:"published"`
	Category    Category  `json:"category"`
	Trusted     bool      `json:"trusted"`
	Remake      bool      `json:"remake"`
}

// HasReference reports whether the item carries a magnet or torrent file link
func (i ResultItem) HasReference() bool {
	return strings.TrimSpace(i.Magnet) != "" || strings.TrimSpace(i.TorrentURL) != ""
}

// Reference returns the preferred download reference, magnet first
func (i ResultItem) Reference() string {
	if i.Magnet != "" {
		return i.Magnet
	}
	return i.TorrentURL
}

// DroppedItem records a row the normalizer rejected
type DroppedItem struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// Page is one page of normalized results
type Page struct {
	Items        []ResultItem  `json:"items"`
	Number       int           `json:"page"`
	HasNext      bool          `json:"has_next"`
	LastPage     int           `json:"last_page,omitempty"`
	TotalResults int           `json:"total_results,omitempty"`
	Source       SourceKind    `json:"source"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Dropped      []DroppedItem `json:"dropped,omitempty"`
}

// Len returns the number of items on the page
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// Sorted returns a copy of the page with items ordered by key and dir.
// The receiver is left untouched. Ties keep their source order.
func (p *Page) Sorted(key SortKey, dir SortDir) *Page {
	out := *p
	out.Items = make([]ResultItem, len(p.Items))
	copy(out.Items, p.Items)

	less := func(a, b ResultItem) bool {
		switch key {
		case SortDownloads:
			return a.Downloads < b.Downloads
		case SortSeeders:
			return a.Seeders < b.Seeders
		case SortLeechers:
			return a.Leechers < b.Leechers
		case SortSize:
			return a.Size < b.Size
		default:
			return a.Published.Before(b.Published)
		}
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		if dir == SortAsc {
			return less(out.Items[i], out.Items[j])
		}
		return less(out.Items[j], out.Items[i])
	})
	return &out
}
