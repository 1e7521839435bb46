// Package tui renders the search UI with bubbletea and translates keys
// into state machine intents.
package tui

import (
	"strconv"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/ui"
)

// Controller runs intents in the background and reports their outcomes
type Controller interface {
	Query(q domain.QuerySpec) uint64
	Submit(req *domain.DownloadRequest)
	Events() <-chan domain.Event
}

type eventMsg struct {
	event domain.Event
}

type closedMsg struct{}

// waitForEvent blocks on the coordinator channel and hands one event to
// the program loop
func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Model is the bubbletea model wrapping the UI state machine
type Model struct {
	machine *ui.Machine
	ctrl    Controller
	logger  *zap.Logger
	styles  styles

	width  int
	height int
	offset int

	input   string
	menu    int
	sortDir domain.SortDir
	status  string
}

// NewModel creates a model driving machine through ctrl
func NewModel(machine *ui.Machine, ctrl Controller, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		machine: machine,
		ctrl:    ctrl,
		logger:  logger,
		styles:  defaultStyles(),
		width:   100,
		height:  30,
	}
}

// Init loads the starting query and starts listening for events
func (m *Model) Init() tea.Cmd {
	m.dispatch(m.machine.Refresh())
	return waitForEvent(m.ctrl.Events())
}

// Update handles input and coordinator events
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll()

	case eventMsg:
		if !m.machine.Apply(msg.event) {
			m.logger.Debug("Ignored stale event")
		}
		if res, ok := msg.event.(domain.SubmissionResult); ok {
			m.status = OutcomeText(res.Outcome)
		}
		m.offset = 0
		m.scroll()
		return m, waitForEvent(m.ctrl.Events())

	case closedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.machine.Quit()
		} else {
			m.handleKey(msg)
		}
		if m.machine.Done() {
			return m, tea.Quit
		}
	}
	return m, nil
}

// dispatch hands an intent to the controller and records it in the machine
func (m *Model) dispatch(intent ui.Intent) {
	switch it := intent.(type) {
	case ui.QueryIntent:
		gen := m.ctrl.Query(it.Query)
		m.machine.Issued(gen)
		m.logger.Debug("Query issued",
			zap.Uint64("generation", gen),
			zap.String("term", it.Query.Term),
			zap.Int("page", it.Query.Page))
	case ui.SubmitIntent:
		req := domain.NewDownloadRequest(it.Item, it.Client, domain.SubmitOptions{})
		m.ctrl.Submit(req)
		m.machine.Submitted(req)
		m.status = "Sending " + strconv.Quote(it.Item.Title) + " to " + it.Client
	}
}

func (m *Model) handleKey(key tea.KeyMsg) {
	switch m.machine.Mode() {
	case ui.ModeError:
		m.machine.Dismiss()
	case ui.ModeHelp:
		m.machine.Back()
	case ui.ModeSearch:
		m.handleInput(key, false)
	case ui.ModePage:
		m.handleInput(key, true)
	case ui.ModeCategory, ui.ModeFilter, ui.ModeSort, ui.ModeSources, ui.ModeClients:
		m.handleMenu(key)
	default:
		m.handleNormal(key)
	}
}

func (m *Model) handleNormal(key tea.KeyMsg) {
	switch key.String() {
	case "q":
		m.machine.Quit()
	case "j", "down":
		m.machine.MoveCursor(1)
	case "k", "up":
		m.machine.MoveCursor(-1)
	case "g", "home":
		m.machine.SetCursor(0)
	case "G", "end":
		m.machine.SetCursor(m.machine.Page().Len() - 1)
	case "pgdown":
		m.machine.MoveCursor(m.rows())
	case "pgup":
		m.machine.MoveCursor(-m.rows())
	case "l", "right", "n":
		m.dispatch(m.machine.NextPage())
	case "h", "left", "p":
		m.dispatch(m.machine.PrevPage())
	case "r":
		m.dispatch(m.machine.Refresh())
	case "R":
		m.dispatch(m.machine.ToggleDirection())
	case "enter", "d":
		if intent := m.machine.SubmitSelected(); intent != nil {
			m.dispatch(intent)
		}
	case "/", "i":
		m.input = m.machine.Query().Term
		m.machine.Open(ui.ModeSearch)
	case "P":
		m.input = ""
		m.machine.Open(ui.ModePage)
	case "c":
		m.openMenu(ui.ModeCategory)
	case "f":
		m.openMenu(ui.ModeFilter)
	case "s":
		m.sortDir = m.machine.Query().Direction
		m.openMenu(ui.ModeSort)
	case "S":
		m.openMenu(ui.ModeSources)
	case "C":
		m.openMenu(ui.ModeClients)
	case "?", "f1":
		m.machine.Open(ui.ModeHelp)
	}
	m.scroll()
}

func (m *Model) handleInput(key tea.KeyMsg, digits bool) {
	switch key.Type {
	case tea.KeyEsc:
		m.machine.Back()
	case tea.KeyEnter:
		if digits {
			n, err := strconv.Atoi(m.input)
			if err != nil {
				m.machine.Back()
				return
			}
			m.dispatch(m.machine.GotoPage(n))
			return
		}
		m.dispatch(m.machine.Search(m.input))
	case tea.KeyBackspace:
		if m.input != "" {
			_, size := utf8.DecodeLastRuneInString(m.input)
			m.input = m.input[:len(m.input)-size]
		}
	case tea.KeySpace:
		if !digits {
			m.input += " "
		}
	case tea.KeyRunes:
		for _, r := range key.Runes {
			if digits && (r < '0' || r > '9') {
				continue
			}
			m.input += string(r)
		}
	}
}

func (m *Model) openMenu(mode ui.Mode) {
	q := m.machine.Query()
	m.menu = 0
	for i, label := range m.menuItems(mode) {
		if label.selected(q, m.machine.Client()) {
			m.menu = i
		}
	}
	m.machine.Open(mode)
}

func (m *Model) handleMenu(key tea.KeyMsg) {
	mode := m.machine.Mode()
	items := m.menuItems(mode)

	switch key.String() {
	case "esc", "q":
		m.machine.Back()
	case "j", "down":
		if m.menu < len(items)-1 {
			m.menu++
		}
	case "k", "up":
		if m.menu > 0 {
			m.menu--
		}
	case "tab":
		if mode == ui.ModeSort {
			m.sortDir = m.sortDir.Toggle()
		}
	case "enter":
		if m.menu >= len(items) {
			return
		}
		item := items[m.menu]
		switch mode {
		case ui.ModeCategory:
			m.dispatch(m.machine.SetCategory(item.category))
		case ui.ModeFilter:
			m.dispatch(m.machine.SetFilter(item.filter))
		case ui.ModeSort:
			m.dispatch(m.machine.SetSort(item.sort, m.sortDir))
		case ui.ModeSources:
			m.dispatch(m.machine.SetSource(item.source))
		case ui.ModeClients:
			if err := m.machine.SetClient(item.client); err != nil {
				m.status = err.Error()
			} else {
				m.status = "Downloads go to " + item.client
			}
		}
	}
}

// rows returns how many result rows fit on screen
func (m *Model) rows() int {
	if n := m.height - 6; n > 1 {
		return n
	}
	return 1
}

// scroll keeps the cursor inside the visible window
func (m *Model) scroll() {
	cursor := m.machine.Cursor()
	if cursor < m.offset {
		m.offset = cursor
	}
	if cursor >= m.offset+m.rows() {
		m.offset = cursor - m.rows() + 1
	}
}

// Run starts the terminal UI on top of services and blocks until the user
// quits. term seeds the first query.
func Run(services *app.Services, term string) error {
	coord := services.NewCoordinator()
	defer coord.Close()

	var clients []string
	for _, c := range services.Downloads.Clients() {
		clients = append(clients, c.Name)
	}
	machine := ui.New(
		services.Config.Search.DefaultQuery(term),
		services.Search.Sources(),
		clients,
		services.Downloads.DefaultClient(),
	)

	program := tea.NewProgram(NewModel(machine, coord, services.Logger), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
