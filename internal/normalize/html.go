package normalize

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// ResultsPerPage is the fixed page size of the HTML listing
const ResultsPerPage = 75

var totalResults = regexp.MustCompile(`out of ([\d,]+) results`)

// ParseHTML parses a search listing page. A page without the results
// table is only accepted when it carries the "No results found" marker.
func ParseHTML(raw *domain.RawPayload) (*domain.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, &domain.ParseError{Source: domain.SourceHTML, Reason: "invalid document", Err: err}
	}

	page := &domain.Page{
		Items:     []domain.ResultItem{},
		Number:    pageNumber(raw.Query),
		Source:    domain.SourceHTML,
		FetchedAt: raw.FetchedAt,
	}

	table := doc.Find("table.torrent-list")
	if table.Length() == 0 {
		if isEmptyListing(doc) {
			return page, nil
		}
		return nil, &domain.ParseError{Source: domain.SourceHTML, Reason: "results table not found"}
	}

	base, _ := url.Parse(raw.URL)

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		item, reason := parseRow(row, base, raw)
		if reason != "" {
			page.Dropped = append(page.Dropped, domain.DroppedItem{Index: i, Title: item.Title, Reason: reason})
			return
		}
		page.Items = append(page.Items, item)
	})

	parsePagination(doc, page)
	return page, nil
}

func isEmptyListing(doc *goquery.Document) bool {
	found := false
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), "no results found") {
			found = true
			return false
		}
		return true
	})
	return found
}

func parseRow(row *goquery.Selection, base *url.URL, raw *domain.RawPayload) (domain.ResultItem, string) {
	var item domain.ResultItem

	cells := row.Find("td")
	if cells.Length() < 8 {
		return item, "unexpected row layout"
	}

	titleLink := cells.Eq(1).Find("a").Not(".comments").Last()
	item.Title = titleLink.AttrOr("title", "")
	if strings.TrimSpace(item.Title) == "" {
		item.Title = titleLink.Text()
	}
	if href, ok := titleLink.Attr("href"); ok {
		item.ViewURL = resolve(base, href)
	}

	catLink := cells.Eq(0).Find("a").First()
	item.Category = domain.CategoryOther
	if href, ok := catLink.Attr("href"); ok {
		if u, err := url.Parse(href); err == nil && u.Query().Get("c") != "" {
			item.Category = domain.LookupCategory(u.Query().Get("c"))
		}
	}
	if item.Category == domain.CategoryOther {
		item.Category = domain.LookupCategory(catLink.AttrOr("title", ""))
	}

	cells.Eq(2).Find("a").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		switch {
		case strings.HasPrefix(href, "magnet:"):
			item.Magnet = href
		case strings.HasSuffix(href, ".torrent"), strings.Contains(href, "/download/"):
			item.TorrentURL = resolve(base, href)
		}
	})

	size, ok := ParseSize(cells.Eq(3).Text())
	item.Size = size
	item.SizeUnknown = !ok

	dateCell := cells.Eq(4)
	dateText := dateCell.AttrOr("data-timestamp", "")
	if dateText == "" {
		dateText = dateCell.Text()
	}
	published, err := ResolveDate(dateText, raw.FetchedAt)
	if err != nil {
		item.Title = strings.TrimSpace(item.Title)
		return item, "unparseable date: " + err.Error()
	}
	item.Published = published

	item.Seeders = parseCount(cells.Eq(5).Text())
	item.Leechers = parseCount(cells.Eq(6).Text())
	item.Downloads = parseCount(cells.Eq(7).Text())
	item.Trusted = row.HasClass("success")
	item.Remake = row.HasClass("danger")

	if reason := finishItem(&item); reason != "" {
		return item, reason
	}
	return item, ""
}

func parsePagination(doc *goquery.Document, page *domain.Page) {
	if m := totalResults.FindStringSubmatch(doc.Find(".pagination-page-info").Text()); m != nil {
		if total, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			page.TotalResults = total
			page.LastPage = (total + ResultsPerPage - 1) / ResultsPerPage
		}
	}

	next := doc.Find("ul.pagination li.next")
	if next.Length() > 0 {
		page.HasNext = !next.HasClass("disabled") && next.Find("a[href]").Length() > 0
		return
	}
	page.HasNext = page.LastPage > page.Number
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
