package domain

import "context"

// DownloadClient hands a result over to an external download mechanism
type DownloadClient interface {
	// Name returns the configured client name
	Name() string

	// Kind returns the backend variant
	Kind() ClientKind

	// Submit negotiates the hand-off of req. Options set on req override
	// the client's configured defaults.
	Submit(ctx context.Context, req *DownloadRequest) error
}
