package domain

import (
	"context"
	"time"
)

// RawPayload is an unparsed response body from a search backend
type RawPayload struct {
	Source    SourceKind
	URL       string
	Body      []byte
	FetchedAt time.Time
	Query     QuerySpec
}

// SourceProvider performs one network fetch for a query
type SourceProvider interface {
	// Kind returns the backend this provider talks to
	Kind() SourceKind

	// Fetch retrieves the raw payload for q. It fails with NetworkError or
	// HTTPStatusError and never retries.
	Fetch(ctx context.Context, q QuerySpec) (*RawPayload, error)
}
