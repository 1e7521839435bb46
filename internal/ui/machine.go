// Package ui holds the terminal front end's state machine. It consumes
// coordinator events, produces query and submission intents and performs
// no I/O of its own; rendering and key handling live in internal/tui.
package ui

import (
	"fmt"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// Mode is the interaction mode shown to the user
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeCategory
	ModeSort
	ModeFilter
	ModeSources
	ModeClients
	ModePage
	ModeHelp
	ModeLoading
	ModeError
)

var modeNames = map[Mode]string{
	ModeNormal:   "Normal",
	ModeSearch:   "Search",
	ModeCategory: "Category",
	ModeSort:     "Sort",
	ModeFilter:   "Filter",
	ModeSources:  "Sources",
	ModeClients:  "Clients",
	ModePage:     "Page",
	ModeHelp:     "Help",
	ModeLoading:  "Loading",
	ModeError:    "Error",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Intent is a request the control loop hands to the coordinator
type Intent interface {
	intent()
}

// QueryIntent asks for Query to be loaded
type QueryIntent struct {
	Query domain.QuerySpec
}

// SubmitIntent asks for Item to be handed to Client
type SubmitIntent struct {
	Item   domain.ResultItem
	Client string
}

func (QueryIntent) intent()  {}
func (SubmitIntent) intent() {}

// NoticeKind tells which intent a notice belongs to
type NoticeKind int

const (
	NoticeQuery NoticeKind = iota
	NoticeSubmission
)

// Notice is a failure waiting to be shown. It carries the cause tag and
// the intent it came from; turning it into text is up to the renderer.
type Notice struct {
	Kind     NoticeKind
	Cause    domain.Cause
	Query    domain.QuerySpec
	Outcome  domain.DownloadOutcome
	Attempts int
	Err      error
}

// Machine is the UI state. It must only be used from the control goroutine.
type Machine struct {
	mode    Mode // overlay chosen by the user; Loading and Error are derived
	query   domain.QuerySpec
	page    *domain.Page
	cursor  int
	pending uint64 // generation being waited for, zero when idle

	sources []domain.SourceKind
	clients []string
	client  string

	notices     []Notice
	submissions map[string]string // request ID to title
	lastOutcome *domain.DownloadOutcome
	quit        bool
}

// New creates a machine that starts from query q. client must be one of
// clients.
func New(q domain.QuerySpec, sources []domain.SourceKind, clients []string, client string) *Machine {
	if len(sources) == 0 {
		sources = domain.SourceKinds
	}
	return &Machine{
		mode:        ModeNormal,
		query:       q.Normalized(),
		sources:     sources,
		clients:     clients,
		client:      client,
		submissions: make(map[string]string),
	}
}

// Mode returns the mode to render. Pending notices take precedence, then
// an outstanding query while no overlay is open.
func (m *Machine) Mode() Mode {
	if len(m.notices) > 0 {
		return ModeError
	}
	if m.mode == ModeNormal && m.pending != 0 {
		return ModeLoading
	}
	return m.mode
}

// Query returns the most recently issued query
func (m *Machine) Query() domain.QuerySpec { return m.query }

// Page returns the page on display, nil before the first load
func (m *Machine) Page() *domain.Page { return m.page }

// Cursor returns the index of the selected row
func (m *Machine) Cursor() int { return m.cursor }

// Loading reports whether a query is outstanding
func (m *Machine) Loading() bool { return m.pending != 0 }

// Pending returns the generation being waited for
func (m *Machine) Pending() uint64 { return m.pending }

// Client returns the client used for submissions
func (m *Machine) Client() string { return m.client }

// Clients returns the configured client names
func (m *Machine) Clients() []string { return m.clients }

// Sources returns the selectable sources
func (m *Machine) Sources() []domain.SourceKind { return m.sources }

// Submitting returns the number of submissions without an outcome yet
func (m *Machine) Submitting() int { return len(m.submissions) }

// LastOutcome returns the most recent submission outcome, if any
func (m *Machine) LastOutcome() (domain.DownloadOutcome, bool) {
	if m.lastOutcome == nil {
		return domain.DownloadOutcome{}, false
	}
	return *m.lastOutcome, true
}

// Notice returns the oldest undismissed failure
func (m *Machine) Notice() (Notice, bool) {
	if len(m.notices) == 0 {
		return Notice{}, false
	}
	return m.notices[0], true
}

// Notices returns the number of undismissed failures
func (m *Machine) Notices() int { return len(m.notices) }

// Quit marks the session as finished
func (m *Machine) Quit() { m.quit = true }

// Done reports whether Quit was called
func (m *Machine) Done() bool { return m.quit }

// Open switches to an overlay mode. Loading and Error cannot be opened
// directly.
func (m *Machine) Open(mode Mode) {
	if mode == ModeLoading || mode == ModeError {
		return
	}
	m.mode = mode
}

// Back closes the current overlay
func (m *Machine) Back() {
	m.mode = ModeNormal
}

// Dismiss drops the oldest notice
func (m *Machine) Dismiss() {
	if len(m.notices) > 0 {
		m.notices = m.notices[1:]
	}
}

// Issued records the generation the coordinator assigned to the last
// query intent. Only the event carrying it will be applied.
func (m *Machine) Issued(gen uint64) {
	m.pending = gen
	m.mode = ModeNormal
}

// Submitted records an in-flight submission
func (m *Machine) Submitted(req *domain.DownloadRequest) {
	m.submissions[req.ID] = req.Item.Title
}

// Apply folds a coordinator event into the state. It returns false when
// the event was stale and ignored.
func (m *Machine) Apply(ev domain.Event) bool {
	switch ev := ev.(type) {
	case domain.QueryLoaded:
		if ev.Generation != m.pending {
			return false
		}
		m.pending = 0
		m.page = ev.Page
		m.query = ev.Query
		m.cursor = 0
		return true

	case domain.QueryFailed:
		if ev.Generation != m.pending {
			return false
		}
		m.pending = 0
		m.notices = append(m.notices, Notice{
			Kind:     NoticeQuery,
			Cause:    ev.Cause,
			Query:    ev.Query,
			Attempts: ev.Attempts,
			Err:      ev.Err,
		})
		return true

	case domain.SubmissionResult:
		out := ev.Outcome
		delete(m.submissions, out.RequestID)
		m.lastOutcome = &out
		if !out.Succeeded {
			m.notices = append(m.notices, Notice{
				Kind:    NoticeSubmission,
				Cause:   out.Cause,
				Outcome: out,
				Err:     out.Err,
			})
		}
		return true
	}
	return false
}

func (m *Machine) issue(q domain.QuerySpec) Intent {
	m.query = q.Normalized()
	m.mode = ModeNormal
	return QueryIntent{Query: m.query}
}

// Search starts a new search for term from the first page
func (m *Machine) Search(term string) Intent {
	q := m.query
	q.Term = term
	return m.issue(q.WithPage(1))
}

// Refresh reloads the current query
func (m *Machine) Refresh() Intent {
	return m.issue(m.query)
}

// SetCategory restarts the current search in category c
func (m *Machine) SetCategory(c domain.Category) Intent {
	q := m.query
	q.Category = c
	return m.issue(q.WithPage(1))
}

// SetFilter restarts the current search with filter f
func (m *Machine) SetFilter(f domain.Filter) Intent {
	q := m.query
	q.Filter = f
	return m.issue(q.WithPage(1))
}

// SetSort orders the current search by key in dir
func (m *Machine) SetSort(key domain.SortKey, dir domain.SortDir) Intent {
	q := m.query
	q.Sort = key
	q.Direction = dir
	return m.issue(q.WithPage(1))
}

// ToggleDirection reverses the current sort direction
func (m *Machine) ToggleDirection() Intent {
	return m.SetSort(m.query.Sort, m.query.Direction.Toggle())
}

// SetSource switches backends. It returns nil for an unknown source.
func (m *Machine) SetSource(s domain.SourceKind) Intent {
	for _, known := range m.sources {
		if known == s {
			q := m.query
			q.Source = s
			return m.issue(q.WithPage(1))
		}
	}
	return nil
}

// SetClient selects the client used for later submissions
func (m *Machine) SetClient(name string) error {
	for _, c := range m.clients {
		if c == name {
			m.client = name
			m.mode = ModeNormal
			return nil
		}
	}
	return fmt.Errorf("unknown client: %s", name)
}

// LastPage returns the highest reachable page, zero when unknown
func (m *Machine) LastPage() int {
	if m.page == nil {
		return 0
	}
	if m.page.LastPage > 0 {
		return m.page.LastPage
	}
	if !m.page.HasNext {
		return m.page.Number
	}
	return 0
}

func (m *Machine) hasNext() bool {
	if m.page == nil {
		return false
	}
	if last := m.LastPage(); last > 0 {
		return m.page.Number < last
	}
	return m.page.HasNext
}

// NextPage moves to the following page, or returns nil on the last one
func (m *Machine) NextPage() Intent {
	if !m.hasNext() {
		return nil
	}
	return m.issue(m.query.WithPage(m.page.Number + 1))
}

// PrevPage moves to the preceding page, or returns nil on the first one
func (m *Machine) PrevPage() Intent {
	if m.page == nil || m.page.Number <= 1 {
		return nil
	}
	return m.issue(m.query.WithPage(m.page.Number - 1))
}

// GotoPage jumps to page n, clamped to the known range. It returns nil
// when n is already on display.
func (m *Machine) GotoPage(n int) Intent {
	if n < 1 {
		n = 1
	}
	if last := m.LastPage(); last > 0 && n > last {
		n = last
	}
	if m.page != nil && m.page.Number == n && m.pending == 0 {
		m.mode = ModeNormal
		return nil
	}
	return m.issue(m.query.WithPage(n))
}

// MoveCursor moves the selection by delta rows, clamped to the page
func (m *Machine) MoveCursor(delta int) {
	m.SetCursor(m.cursor + delta)
}

// SetCursor selects row i, clamped to the page
func (m *Machine) SetCursor(i int) {
	n := m.page.Len()
	switch {
	case n == 0:
		m.cursor = 0
	case i < 0:
		m.cursor = 0
	case i >= n:
		m.cursor = n - 1
	default:
		m.cursor = i
	}
}

// Selected returns the item under the cursor
func (m *Machine) Selected() (domain.ResultItem, bool) {
	if m.page.Len() == 0 {
		return domain.ResultItem{}, false
	}
	return m.page.Items[m.cursor], true
}

// SubmitSelected asks for the item under the cursor to be downloaded with
// the current client. It returns nil when nothing is selected.
func (m *Machine) SubmitSelected() Intent {
	item, ok := m.Selected()
	if !ok || !item.HasReference() {
		return nil
	}
	return SubmitIntent{Item: item, Client: m.client}
}
