// Package normalize turns raw search backend payloads into validated pages.
// Everything here is pure: no network or file access and no logging.
package normalize

import (
	"strconv"
	"strings"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// Parse converts a raw payload into a page using the parser for its source
func Parse(raw *domain.RawPayload) (*domain.Page, error) {
	if raw == nil {
		return nil, &domain.ParseError{Reason: "nil payload"}
	}

	switch raw.Source {
	case domain.SourceHTML:
		return ParseHTML(raw)
	case domain.SourceRSS:
		return ParseRSS(raw)
	default:
		return nil, &domain.ParseError{Source: raw.Source, Reason: "unknown source kind"}
	}
}

// finishItem trims text fields and checks the download reference. It
// returns a non-empty reason when the item must be dropped.
func finishItem(item *domain.ResultItem) string {
	item.Title = strings.TrimSpace(item.Title)
	item.Magnet = strings.TrimSpace(item.Magnet)
	item.TorrentURL = strings.TrimSpace(item.TorrentURL)
	item.ViewURL = strings.TrimSpace(item.ViewURL)

	if item.Magnet != "" {
		hash, ok := MagnetInfoHash(item.Magnet)
		if !ok {
			item.Magnet = ""
		} else if item.InfoHash == "" {
			item.InfoHash = hash
		}
	}
	item.InfoHash = strings.ToLower(strings.TrimSpace(item.InfoHash))

	if item.Title == "" {
		return "missing title"
	}
	if !item.HasReference() {
		return "no magnet or torrent link"
	}
	return ""
}

func parseCount(text string) int {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pageNumber(q domain.QuerySpec) int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}
