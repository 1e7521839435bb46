package domain

import (
	"fmt"
	"strings"
)

// SourceKind identifies a search backend
type SourceKind string

const (
	SourceHTML SourceKind = "html" // scraped search result pages
	SourceRSS  SourceKind = "rss"  // RSS feed with nyaa extensions
)

// SourceKinds lists every supported backend in display order
var SourceKinds = []SourceKind{SourceHTML, SourceRSS}

// ValidateSource checks if a source kind is supported
func ValidateSource(kind SourceKind) bool {
	return kind == SourceHTML || kind == SourceRSS
}

// Filter restricts which uploads are returned
type Filter string

const (
	FilterNone        Filter = "no_filter"
	FilterNoRemakes   Filter = "no_remakes"
	FilterTrustedOnly Filter = "trusted_only"
	FilterBatches     Filter = "batches"
)

// Filters lists every filter in display order
var Filters = []Filter{FilterNone, FilterNoRemakes, FilterTrustedOnly, FilterBatches}

// Code returns the value of the index's f query parameter
func (f Filter) Code() string {
	switch f {
	case FilterNoRemakes:
		return "1"
	case FilterTrustedOnly:
		return "2"
	case FilterBatches:
		return "3"
	default:
		return "0"
	}
}

// Label returns a display name for the filter
func (f Filter) Label() string {
	switch f {
	case FilterNoRemakes:
		return "No Remakes"
	case FilterTrustedOnly:
		return "Trusted Only"
	case FilterBatches:
		return "Batches"
	default:
		return "No Filter"
	}
}

// SortKey is the column results are ordered by
type SortKey string

const (
	SortDate      SortKey = "date"
	SortDownloads SortKey = "downloads"
	SortSeeders   SortKey = "seeders"
	SortLeechers  SortKey = "leechers"
	SortSize      SortKey = "size"
)

// SortKeys lists every sort key in display order
var SortKeys = []SortKey{SortDate, SortDownloads, SortSeeders, SortLeechers, SortSize}

// Param returns the value of the index's s query parameter
func (k SortKey) Param() string {
	if k == SortDate || k == "" {
		return "id"
	}
	return string(k)
}

// Label returns a display name for the sort key
func (k SortKey) Label() string {
	if k == "" {
		return "Date"
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// SortDir is the direction of a sort
type SortDir string

const (
	SortDesc SortDir = "desc"
	SortAsc  SortDir = "asc"
)

// Toggle returns the opposite direction
func (d SortDir) Toggle() SortDir {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// QuerySpec describes one logical search. Two specs are the same logical
// query iff they compare equal with ==.
type QuerySpec struct {
	Term      string     `json:"term"`
	Category  Category   `json:"category"`
	Filter    Filter     `json:"filter"`
	Sort      SortKey    `json:"sort"`
	Direction SortDir    `json:"direction"`
	Page      int        `json:"page"`
	Source    SourceKind `json:"source"`
}

// Normalized fills zero-valued fields with their defaults
func (q QuerySpec) Normalized() QuerySpec {
	q.Term = strings.TrimSpace(q.Term)
	if q.Category == "" {
		q.Category = CategoryAll
	}
	if q.Filter == "" {
		q.Filter = FilterNone
	}
	if q.Sort == "" {
		q.Sort = SortDate
	}
	if q.Direction == "" {
		q.Direction = SortDesc
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Source == "" {
		q.Source = SourceHTML
	}
	return q
}

// WithPage returns a copy of the query targeting page n
func (q QuerySpec) WithPage(n int) QuerySpec {
	q.Page = n
	return q
}

// Validate checks that every field holds a supported value
func (q QuerySpec) Validate() error {
	if !ValidateSource(q.Source) {
		return fmt.Errorf("unsupported source: %q", q.Source)
	}
	if _, ok := categoryByCode[q.Category]; !ok {
		return fmt.Errorf("unsupported category: %q", q.Category)
	}
	switch q.Filter {
	case FilterNone, FilterNoRemakes, FilterTrustedOnly, FilterBatches:
	default:
		return fmt.Errorf("unsupported filter: %q", q.Filter)
	}
	switch q.Sort {
	case SortDate, SortDownloads, SortSeeders, SortLeechers, SortSize:
	default:
		return fmt.Errorf("unsupported sort key: %q", q.Sort)
	}
	if q.Direction != SortAsc && q.Direction != SortDesc {
		return fmt.Errorf("unsupported sort direction: %q", q.Direction)
	}
	if q.Page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", q.Page)
	}
	return nil
}
