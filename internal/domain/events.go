package domain

// Event is delivered from the request coordinator to the UI
type Event interface {
	event()
}

// QueryLoaded is emitted when the current query produced a page
type QueryLoaded struct {
	Generation uint64
	Query      QuerySpec
	Page       *Page
	Attempts   int
}

// QueryFailed is emitted when the current query failed terminally
type QueryFailed struct {
	Generation uint64
	Query      QuerySpec
	Cause      Cause
	Err        error
	Attempts   int
}

// SubmissionResult is emitted once per finished submission
type SubmissionResult struct {
	Outcome DownloadOutcome
}

func (QueryLoaded) event()      {}
func (QueryFailed) event()      {}
func (SubmissionResult) event() {}
