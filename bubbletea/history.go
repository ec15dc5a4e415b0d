package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// historyChromeLines is the number of lines used by the header, the
// subheader and the status line.
const historyChromeLines = 3

// Column widths of the history list.
const (
	dateColumn     = 12
	nameColumn     = 24
	idColumn       = 11
	languageColumn = 10
	issuesColumn   = 9
)

type detailTab int

const (
	tabSummary detailTab = iota
	tabOriginal
	tabOptimized
)

var tabNames = []string{"Summary", "Original", "Optimized"}

type historyLoadedMsg struct {
	ticket  codereview.FetchTicket
	records []codereview.HistoryRecord
	err     error
}

type deleteDoneMsg struct {
	id  string
	err error
}

// HistoryModel is the history screen: a searchable list of past analyses
// with a detail view per record.
type HistoryModel struct {
	fetcher codereview.HistoryFetcher
	deleter codereview.RecordDeleter
	cfg     config
	keymap  HistoryKeyMap
	cache   *codereview.HistoryCache

	search    textinput.Model
	searching bool
	cursor    int
	offset    int

	detail detailTab
	pager  viewport.Model
	ready  bool
	width  int
	height int

	refreshing bool
	signIn     bool
	confirm    string
	notice     *codereview.Notice
}

// NewHistoryModel creates the history screen. A nil deleter disables
// deleting.
func NewHistoryModel(fetcher codereview.HistoryFetcher, deleter codereview.RecordDeleter, opts ...Option) HistoryModel {
	search := textinput.New()
	search.Placeholder = "Search by language or file name"
	search.Prompt = "/ "

	return HistoryModel{
		fetcher: fetcher,
		deleter: deleter,
		cfg:     newConfig(opts),
		keymap:  DefaultHistoryKeyMap(),
		cache:   codereview.NewHistoryCache(),
		search:  search,
	}
}

// Cache returns the history cache driven by the screen.
func (m HistoryModel) Cache() *codereview.HistoryCache { return m.cache }

// Init implements tea.Model.
func (m HistoryModel) Init() tea.Cmd {
	return m.fetch()
}

// fetch returns a command that loads the history for the signed-in user.
// Without a session accessor the anonymous identity is used.
func (m HistoryModel) fetch() tea.Cmd {
	ticket := m.cache.BeginFetch()
	fetcher, sessions := m.fetcher, m.cfg.sessions
	return func() tea.Msg {
		ctx := context.Background()
		identity := codereview.AnonymousIdentity
		if sessions != nil {
			s, err := codereview.RequireSession(ctx, sessions)
			if err != nil {
				return historyLoadedMsg{ticket: ticket, err: err}
			}
			identity = s.UserID
		}
		records, err := fetcher.History(ctx, identity)
		return historyLoadedMsg{ticket: ticket, records: records, err: err}
	}
}

// remove returns a command that deletes id.
func (m HistoryModel) remove(id string) tea.Cmd {
	if err := m.cache.BeginDelete(id); err != nil {
		m.cfg.logger.Debug("delete ignored", zap.String("id", id), zap.Error(err))
		return nil
	}
	deleter := m.deleter
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: deleter.Delete(context.Background(), id)}
	}
}

// Update implements tea.Model.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case historyLoadedMsg:
		m.loaded(msg)
		return m, nil

	case deleteDoneMsg:
		closed := m.cache.CompleteDelete(msg.id, msg.err)
		n := codereview.DeleteNotice(msg.err)
		m.notice = &n
		if msg.err != nil {
			m.cfg.logger.Warn("delete failed", zap.String("id", msg.id), zap.Error(msg.err))
			return m, nil
		}
		m.cfg.logger.Info("record deleted", zap.String("id", msg.id), zap.Bool("detail_closed", closed))
		m.clampCursor()
		return m, m.fetch()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *HistoryModel) loaded(msg historyLoadedMsg) {
	m.refreshing = false
	if msg.err != nil {
		current := m.cache.FailFetch(msg.ticket)
		if codereview.NeedsSignIn(msg.err) {
			m.signIn = current || m.signIn
			return
		}
		if current {
			m.cfg.logger.Warn("history fetch failed", zap.Error(msg.err))
			n := codereview.HistoryLoadNotice()
			m.notice = &n
		}
		return
	}
	if m.cache.ApplyFetch(msg.ticket, msg.records) {
		m.signIn = false
		m.clampCursor()
		m.refreshDetail()
	}
}

func (m HistoryModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != "" {
		id := m.confirm
		m.confirm = ""
		if key.Matches(msg, m.keymap.Confirm) {
			return m, m.remove(id)
		}
		return m, nil
	}

	if m.searching {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.cursor, m.offset = 0, 0
		return m, cmd
	}

	if key.Matches(msg, m.keymap.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keymap.Refresh) {
		m.refreshing = true
		return m, m.fetch()
	}
	if m.signIn {
		return m, nil
	}
	if m.cache.Selected() != nil {
		return m.handleDetailKey(msg)
	}

	visible := m.visible()
	switch {
	case key.Matches(msg, m.keymap.Search):
		m.searching = true
		m.notice = nil
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keymap.Back):
		m.notice = nil
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.cursor, m.offset = 0, 0
		}
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Open):
		if m.cursor < len(visible) && m.cache.Select(visible[m.cursor].ID) {
			m.detail = tabSummary
			m.refreshDetail()
			m.pager.GotoTop()
		}
	case key.Matches(msg, m.keymap.Delete):
		if m.deleter != nil && m.cursor < len(visible) {
			m.confirm = visible[m.cursor].ID
		}
	}
	m.scrollToCursor()
	return m, nil
}

func (m HistoryModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.cache.CloseDetail()
		m.notice = nil
	case key.Matches(msg, m.keymap.Summary):
		m.showTab(tabSummary)
	case key.Matches(msg, m.keymap.Original):
		m.showTab(tabOriginal)
	case key.Matches(msg, m.keymap.Optimized):
		m.showTab(tabOptimized)
	case key.Matches(msg, m.keymap.NextTab):
		m.showTab((m.detail + 1) % detailTab(len(tabNames)))
	case key.Matches(msg, m.keymap.Copy):
		m.copySelected()
	case key.Matches(msg, m.keymap.Delete):
		if m.deleter != nil {
			m.confirm = m.cache.Selected().ID
		}
	case key.Matches(msg, m.keymap.Up):
		m.pager.ScrollUp(1)
	case key.Matches(msg, m.keymap.Down):
		m.pager.ScrollDown(1)
	default:
		var cmd tea.Cmd
		m.pager, cmd = m.pager.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *HistoryModel) showTab(t detailTab) {
	m.detail = t
	m.refreshDetail()
	m.pager.GotoTop()
}

func (m *HistoryModel) copySelected() {
	r := m.cache.Selected()
	if m.cfg.clipboard == nil {
		m.notice = &codereview.Notice{Title: "Error", Description: "Clipboard is not available.", Error: true}
		return
	}
	code := r.OptimizedOrOriginal()
	if m.detail == tabOriginal {
		code = r.CodeSnippet
	}
	if err := m.cfg.clipboard.Copy(code); err != nil {
		m.cfg.logger.Warn("copy failed", zap.Error(err))
		m.notice = &codereview.Notice{Title: "Error", Description: "Failed to copy to clipboard.", Error: true}
		return
	}
	m.notice = &codereview.Notice{Title: "Copied", Description: "Code copied to clipboard."}
}

func (m HistoryModel) visible() []codereview.HistoryRecord {
	return m.cache.Filter(m.search.Value())
}

func (m *HistoryModel) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.scrollToCursor()
}

// scrollToCursor keeps the cursor row inside the list window.
func (m *HistoryModel) scrollToCursor() {
	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m HistoryModel) listRows() int {
	return max(m.height-historyChromeLines, 1)
}

func (m *HistoryModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(width-4, 10)

	pagerHeight := max(height-historyChromeLines, 1)
	if !m.ready {
		m.pager = viewport.New(width, pagerHeight)
		m.ready = true
	} else {
		m.pager.Width = width
		m.pager.Height = pagerHeight
	}
	m.scrollToCursor()
	m.refreshDetail()
}

func (m *HistoryModel) refreshDetail() {
	if !m.ready {
		return
	}
	r := m.cache.Selected()
	if r == nil {
		return
	}
	m.pager.SetContent(m.detailContent(*r))
}

func (m HistoryModel) detailContent(r codereview.HistoryRecord) string {
	cfg := m.cfg.render(m.width)
	switch m.detail {
	case tabOriginal:
		return renderCode(cfg, r.Language, r.CodeSnippet)
	case tabOptimized:
		return renderCode(cfg, r.Language, r.OptimizedOrOriginal())
	}

	label := cfg.fg(cfg.palette.UIForeground)
	value := cfg.fg(cfg.palette.Foreground)

	var sb strings.Builder
	summary := r.Summary
	if strings.TrimSpace(summary) == "" {
		summary = "No summary available."
	}
	sb.WriteString(value.Render(wrap("", summary, m.width)))
	sb.WriteString("\n\n")
	for _, field := range [][2]string{
		{"ID", r.ID},
		{"File", r.DisplayName()},
		{"Language", r.Language},
		{"Created", codereview.FormatDate(r.CreatedAt)},
		{"Status", string(r.Status())},
	} {
		sb.WriteString(label.Render(fmt.Sprintf("%-10s", field[0])))
		sb.WriteString(value.Render(field[1]))
		sb.WriteString("\n")
	}
	sb.WriteString(label.Render(fmt.Sprintf("%-10s", "Issues")))
	sb.WriteString(m.statusStyle(cfg, r).Render(r.IssuesLabel()))
	sb.WriteString("\n")
	return sb.String()
}

func (m HistoryModel) statusStyle(cfg renderConfig, r codereview.HistoryRecord) lipgloss.Style {
	if r.Status() == codereview.StatusClean {
		return cfg.pair(cfg.styles.Clean)
	}
	return cfg.pair(cfg.styles.HasIssues)
}

// View implements tea.Model.
func (m HistoryModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	cfg := m.cfg.render(m.width)
	if r := m.cache.Selected(); r != nil && !m.signIn {
		return m.detailView(cfg, *r)
	}
	return m.listView(cfg)
}

func (m HistoryModel) listView(cfg renderConfig) string {
	accent := cfg.fg(cfg.palette.UIAccent).Bold(true)
	dim := cfg.fg(cfg.palette.UIForeground)

	var sb strings.Builder
	header := accent.Render("History")
	switch {
	case m.refreshing:
		header += dim.Render(" · refreshing...")
	case m.cache.Loaded():
		header += dim.Render(fmt.Sprintf(" · %d analyses", m.cache.Len()))
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	if m.signIn {
		sb.WriteString("\n")
		sb.WriteString(cfg.fg(cfg.palette.Foreground).Render("Sign in to view your analysis history."))
		sb.WriteString("\n")
		sb.WriteString(dim.Render("Run `codereview login`, then press r to retry."))
		sb.WriteString("\n")
		return sb.String()
	}

	if m.searching || m.search.Value() != "" {
		sb.WriteString(m.search.View())
	} else {
		sb.WriteString(dim.Render(fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
			dateColumn, "Date", nameColumn, "File", idColumn, "ID", languageColumn, "Language", issuesColumn, "Issues")))
	}
	sb.WriteString("\n")

	visible := m.visible()
	rows := m.listRows()
	switch {
	case !m.cache.Loaded() && m.notice == nil:
		sb.WriteString(dim.Render("Loading history..."))
		sb.WriteString("\n")
		rows--
	case !m.cache.Loaded():
		sb.WriteString(dim.Render("Press r to retry."))
		sb.WriteString("\n")
		rows--
	case m.cache.Len() == 0:
		sb.WriteString(dim.Render("No analyses yet."))
		sb.WriteString("\n")
		rows--
	case len(visible) == 0:
		sb.WriteString(dim.Render(fmt.Sprintf("No analyses match %q.", m.search.Value())))
		sb.WriteString("\n")
		rows--
	}

	end := min(m.offset+rows, len(visible))
	for i := m.offset; i < end; i++ {
		sb.WriteString(m.rowView(cfg, visible[i], i == m.cursor))
		sb.WriteString("\n")
		rows--
	}
	for ; rows > 0; rows-- {
		sb.WriteString("\n")
	}

	sb.WriteString(m.statusView(cfg, m.keymap.Search, m.keymap.Open, m.keymap.Delete, m.keymap.Refresh, m.keymap.Quit))
	return sb.String()
}

func (m HistoryModel) rowView(cfg renderConfig, r codereview.HistoryRecord, selected bool) string {
	fixed := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  ",
		dateColumn, codereview.FormatDate(r.CreatedAt),
		nameColumn, truncate(r.DisplayName(), nameColumn),
		idColumn, r.ShortID(),
		languageColumn, truncate(r.Language, languageColumn))
	issues := fmt.Sprintf("%-*s", issuesColumn, r.IssuesLabel())

	rest := ""
	if m.cache.Deleting(r.ID) {
		rest = "  deleting..."
	} else if room := m.width - len(fixed) - issuesColumn - 2; room > 8 {
		rest = "  " + codereview.TruncateSnippet(r.CodeSnippet, room)
	}

	if selected {
		return cfg.pair(cfg.styles.Selected).Render(padLine(fixed+issues+rest, m.width))
	}
	dim := cfg.fg(cfg.palette.UIForeground)
	return cfg.fg(cfg.palette.Foreground).Render(fixed) + m.statusStyle(cfg, r).Render(issues) + dim.Render(rest)
}

func (m HistoryModel) detailView(cfg renderConfig, r codereview.HistoryRecord) string {
	accent := cfg.fg(cfg.palette.UIAccent).Bold(true)
	dim := cfg.fg(cfg.palette.UIForeground)

	var sb strings.Builder
	sb.WriteString(accent.Render(r.DisplayName()))
	sb.WriteString(dim.Render(" · " + codereview.FormatDate(r.CreatedAt) + " · " + r.Language + " · "))
	sb.WriteString(m.statusStyle(cfg, r).Render(r.IssuesLabel()))
	sb.WriteString("\n")

	for i, name := range tabNames {
		label := fmt.Sprintf(" %d %s ", i+1, name)
		if detailTab(i) == m.detail {
			sb.WriteString(cfg.pair(cfg.styles.Selected).Bold(true).Render(label))
		} else {
			sb.WriteString(dim.Render(label))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.pager.View())
	sb.WriteString("\n")

	km := m.keymap
	sb.WriteString(m.statusView(cfg, km.Summary, km.Original, km.Optimized, km.Copy, km.Delete, km.Back))
	return sb.String()
}

func (m HistoryModel) statusView(cfg renderConfig, bindings ...key.Binding) string {
	if m.confirm != "" {
		prompt := "Delete this analysis? Press " + m.keymap.Confirm.Help().Key + " to confirm, any other key to cancel."
		return cfg.pair(cfg.styles.Deleted).Bold(true).Render(prompt)
	}
	if m.notice != nil {
		return renderNotice(cfg, *m.notice)
	}
	return cfg.fg(cfg.palette.UIForeground).Render(helpLine(bindings...))
}
