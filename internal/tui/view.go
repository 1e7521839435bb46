package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/ui"
)

type styles struct {
	header   lipgloss.Style
	selected lipgloss.Style
	trusted  lipgloss.Style
	remake   lipgloss.Style
	dim      lipgloss.Style
	status   lipgloss.Style
	popup    lipgloss.Style
	errorBox lipgloss.Style
	title    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		selected: lipgloss.NewStyle().Reverse(true),
		trusted:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		remake:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1),
		popup:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1),
		errorBox: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("1")).Padding(0, 1),
		title:    lipgloss.NewStyle().Bold(true),
	}
}

// menuItem is one entry of a selection popup
type menuItem struct {
	label    string
	category domain.Category
	filter   domain.Filter
	sort     domain.SortKey
	source   domain.SourceKind
	client   string
}

func (i menuItem) selected(q domain.QuerySpec, client string) bool {
	switch {
	case i.category != "":
		return i.category == q.Category
	case i.filter != "":
		return i.filter == q.Filter
	case i.sort != "":
		return i.sort == q.Sort
	case i.source != "":
		return i.source == q.Source
	case i.client != "":
		return i.client == client
	}
	return false
}

func (m *Model) menuItems(mode ui.Mode) []menuItem {
	var items []menuItem
	switch mode {
	case ui.ModeCategory:
		for _, c := range domain.Categories {
			items = append(items, menuItem{label: c.Name, category: c.Code})
		}
	case ui.ModeFilter:
		for _, f := range domain.Filters {
			items = append(items, menuItem{label: f.Label(), filter: f})
		}
	case ui.ModeSort:
		for _, k := range domain.SortKeys {
			items = append(items, menuItem{label: k.Label(), sort: k})
		}
	case ui.ModeSources:
		for _, s := range m.machine.Sources() {
			items = append(items, menuItem{label: sourceLabel(s), source: s})
		}
	case ui.ModeClients:
		for _, c := range m.machine.Clients() {
			items = append(items, menuItem{label: c, client: c})
		}
	}
	return items
}

func sourceLabel(s domain.SourceKind) string {
	switch s {
	case domain.SourceHTML:
		return "Nyaa (HTML)"
	case domain.SourceRSS:
		return "Nyaa (RSS)"
	}
	return string(s)
}

func dirArrow(d domain.SortDir) string {
	if d == domain.SortAsc {
		return "▲"
	}
	return "▼"
}

// View renders the whole screen
func (m *Model) View() string {
	header := m.viewHeader()
	footer := m.viewFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	switch m.machine.Mode() {
	case ui.ModeError:
		body = m.place(bodyHeight, m.viewNotice())
	case ui.ModeHelp:
		body = m.place(bodyHeight, m.styles.popup.Render(helpText))
	case ui.ModePage:
		body = m.place(bodyHeight, m.viewPagePrompt())
	case ui.ModeCategory, ui.ModeFilter, ui.ModeSort, ui.ModeSources, ui.ModeClients:
		body = m.place(bodyHeight, m.viewMenu())
	default:
		body = m.viewResults(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) place(height int, content string) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewHeader() string {
	q := m.machine.Query()
	line := fmt.Sprintf("nyaa · %s · %s · %s · %s %s",
		sourceLabel(q.Source),
		q.Category.Info().Name,
		q.Filter.Label(),
		q.Sort.Label(),
		dirArrow(q.Direction))

	term := q.Term
	if m.machine.Mode() == ui.ModeSearch {
		term = m.input + "█"
	}
	search := "Search: " + term
	return lipgloss.JoinVertical(lipgloss.Left, m.styles.header.Render(line), search, "")
}

func (m *Model) viewResults(height int) string {
	page := m.machine.Page()
	if page.Len() == 0 {
		msg := "No results"
		if m.machine.Loading() {
			msg = "Loading…"
		}
		return m.place(height, m.styles.dim.Render(msg))
	}

	const fixed = 5 + 10 + 14 + 7 + 7 + 8 + 6
	titleWidth := m.width - fixed
	if titleWidth < 10 {
		titleWidth = 10
	}
	col := func(w int) lipgloss.Style { return lipgloss.NewStyle().Width(w).MaxWidth(w) }
	right := func(w int) lipgloss.Style { return col(w).Align(lipgloss.Right) }

	lines := []string{m.styles.title.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		col(6).Render("Cat"),
		col(titleWidth+1).Render("Name"),
		right(10).Render("Size"),
		right(15).Render("Date"),
		right(7).Render("S"),
		right(7).Render("L"),
		right(8).Render("D"),
	))}

	end := m.offset + height - 1
	if end > page.Len() {
		end = page.Len()
	}
	for i := m.offset; i < end; i++ {
		item := page.Items[i]
		size := humanize.IBytes(uint64(item.Size))
		if item.SizeUnknown {
			size = "?"
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			col(6).Render(item.Category.Info().Short),
			col(titleWidth+1).Render(item.Title),
			right(10).Render(size),
			right(15).Render(humanize.Time(item.Published)),
			right(7).Render(humanize.Comma(int64(item.Seeders))),
			right(7).Render(humanize.Comma(int64(item.Leechers))),
			right(8).Render(humanize.Comma(int64(item.Downloads))),
		)

		switch {
		case i == m.machine.Cursor():
			row = m.styles.selected.Render(row)
		case item.Trusted:
			row = m.styles.trusted.Render(row)
		case item.Remake:
			row = m.styles.remake.Render(row)
		}
		lines = append(lines, row)
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) viewFooter() string {
	parts := []string{m.machine.Mode().String()}

	if page := m.machine.Page(); page != nil {
		pos := fmt.Sprintf("Page %d", page.Number)
		if last := m.machine.LastPage(); last > 0 {
			pos += fmt.Sprintf("/%d", last)
		}
		parts = append(parts, pos)
		if page.TotalResults > 0 {
			parts = append(parts, humanize.Comma(int64(page.TotalResults))+" results")
		}
	}
	parts = append(parts, "Client: "+m.machine.Client())
	if n := m.machine.Submitting(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d sending", n))
	}

	bar := m.styles.status.Render(strings.Join(parts, " │ "))
	return lipgloss.JoinVertical(lipgloss.Left, bar, m.status)
}

func (m *Model) viewNotice() string {
	n, ok := m.machine.Notice()
	if !ok {
		return ""
	}
	text := NoticeText(n)
	if more := m.machine.Notices() - 1; more > 0 {
		text += fmt.Sprintf("\n\n(%d more)", more)
	}
	width := m.width - 8
	if width > 80 {
		width = 80
	}
	box := m.styles.errorBox.Width(width)
	return box.Render(m.styles.remake.Render("Error: press any key to dismiss") + "\n\n" + text)
}

func (m *Model) viewPagePrompt() string {
	prompt := "Go to page: " + m.input + "█"
	if last := m.machine.LastPage(); last > 0 {
		prompt += m.styles.dim.Render(fmt.Sprintf("  (1-%d)", last))
	}
	return m.styles.popup.Render(prompt)
}

func (m *Model) viewMenu() string {
	mode := m.machine.Mode()
	items := m.menuItems(mode)
	q := m.machine.Query()

	title := mode.String()
	if mode == ui.ModeSort {
		title += " " + dirArrow(m.sortDir) + " (tab to flip)"
	}

	lines := []string{m.styles.title.Render(title)}
	for i, item := range items {
		marker := "  "
		if item.selected(q, m.machine.Client()) {
			marker = "• "
		}
		line := marker + item.label
		if i == m.menu {
			line = m.styles.selected.Render(line)
		}
		lines = append(lines, line)
	}
	return m.styles.popup.Render(strings.Join(lines, "\n"))
}

const helpText = `Keys

  j/k, ↑/↓     move selection
  g/G          first/last row
  h/l, ←/→     previous/next page
  P            go to page
  enter, d     download selected
  / or i       search
  c            category
  f            filter
  s            sort (R flips direction)
  S            source
  C            download client
  r            refresh
  q, ctrl+c    quit

Press any key to close`
