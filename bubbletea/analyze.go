package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/codereview"
	"go.uber.org/zap"
)

// chromeLines is the number of lines used by the header, the results title,
// the status line and the help line.
const chromeLines = 4

type pane int

const (
	paneEditor pane = iota
	paneResults
)

// analysisDoneMsg carries the outcome of one submission.
type analysisDoneMsg struct {
	ticket codereview.Ticket
	resp   *codereview.AnalysisResponse
	err    error
}

// AnalyzeModel is the analysis screen: a code editor, a language selector
// and the results of the latest submission.
type AnalyzeModel struct {
	analyzer codereview.Analyzer
	cfg      config
	keymap   AnalyzeKeyMap
	flow     *codereview.AnalysisFlow

	editor   textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	language string
	fileName string
	focus    pane
	showDiff bool
	diff     *codereview.Diff
	notice   *codereview.Notice
}

// NewAnalyzeModel creates the analysis screen backed by analyzer.
func NewAnalyzeModel(analyzer codereview.Analyzer, opts ...Option) AnalyzeModel {
	cfg := newConfig(opts)

	editor := textarea.New()
	editor.Placeholder = "Paste your code here..."
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.SetValue(cfg.code)
	editor.Focus()

	return AnalyzeModel{
		analyzer: analyzer,
		cfg:      cfg,
		keymap:   DefaultAnalyzeKeyMap(),
		flow:     &codereview.AnalysisFlow{},
		editor:   editor,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		language: cfg.initialLanguage(),
		fileName: cfg.fileName,
	}
}

// Language returns the selected language.
func (m AnalyzeModel) Language() string { return m.language }

// Flow returns the analysis flow driven by the screen.
func (m AnalyzeModel) Flow() *codereview.AnalysisFlow { return m.flow }

// Init implements tea.Model.
func (m AnalyzeModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m AnalyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case analysisDoneMsg:
		m.complete(msg)
		return m, nil

	case spinner.TickMsg:
		if m.flow.State() != codereview.FlowSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m AnalyzeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Submit):
		cmd := m.submit()
		return m, cmd
	case key.Matches(msg, m.keymap.Language):
		m.language = codereview.NextLanguage(m.language)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.Focus):
		m.toggleFocus()
		return m, nil
	}

	if m.focus == paneEditor {
		if key.Matches(msg, m.keymap.Back) {
			m.notice = nil
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Back):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keymap.Copy):
		m.copyOptimized()
		return m, nil
	case key.Matches(msg, m.keymap.ToggleDiff):
		m.showDiff = !m.showDiff
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.Up):
		m.viewport.ScrollUp(1)
		return m, nil
	case key.Matches(msg, m.keymap.Down):
		m.viewport.ScrollDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *AnalyzeModel) toggleFocus() {
	if m.focus == paneEditor {
		m.focus = paneResults
		m.editor.Blur()
		return
	}
	m.focus = paneEditor
	m.editor.Focus()
}

// submit starts an analysis of the editor contents.
func (m *AnalyzeModel) submit() tea.Cmd {
	req := codereview.AnalysisRequest{
		Code:     m.editor.Value(),
		Language: m.language,
		FileName: m.fileName,
	}
	ticket, err := m.flow.Submit(req)
	switch {
	case errors.Is(err, codereview.ErrSubmissionInFlight):
		return nil
	case errors.Is(err, codereview.ErrEmptyCode):
		m.notice = &codereview.Notice{Title: "Nothing to Analyze", Description: "Please enter some code to analyze.", Error: true}
		return nil
	case err != nil:
		n := codereview.NoticeFor(err)
		m.notice = &n
		return nil
	}

	m.notice = nil
	m.refresh()
	m.cfg.logger.Debug("submitting analysis",
		zap.String("language", req.Language),
		zap.Int("bytes", len(req.Code)))
	return tea.Batch(m.spinner.Tick, analyze(m.analyzer, m.cfg.sessions, m.cfg.logger, ticket, req))
}

// analyze returns a command that resolves the identity and submits req.
// A session that cannot be read never blocks the request.
func analyze(analyzer codereview.Analyzer, sessions codereview.SessionAccessor, logger *zap.Logger, ticket codereview.Ticket, req codereview.AnalysisRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		identity, err := codereview.IdentityFrom(ctx, sessions)
		if err != nil {
			logger.Warn("session unavailable, submitting anonymously", zap.Error(err))
		}
		resp, err := analyzer.Analyze(ctx, identity, req)
		return analysisDoneMsg{ticket: ticket, resp: resp, err: err}
	}
}

func (m *AnalyzeModel) complete(msg analysisDoneMsg) {
	if msg.err == nil && msg.resp == nil {
		msg.err = codereview.ErrEmptyResponse
	}
	if msg.err != nil {
		if !m.flow.Fail(msg.ticket, msg.err) {
			return
		}
		m.cfg.logger.Warn("analysis failed",
			zap.Stringer("kind", m.flow.Kind()),
			zap.Error(msg.err))
		n := codereview.NoticeFor(msg.err)
		m.notice = &n
		m.refresh()
		return
	}

	if !m.flow.Succeed(msg.ticket, msg.resp) {
		return
	}
	n := codereview.CompletionNotice(m.flow.IssuesCount())
	m.notice = &n

	m.diff = nil
	if m.cfg.differ != nil {
		diff, err := m.cfg.differ.Diff(m.flow.Request().Code, m.flow.Result().OptimizedCode)
		if err != nil {
			m.cfg.logger.Warn("failed to diff optimized code", zap.Error(err))
		}
		m.diff = diff
	}

	if m.focus == paneEditor {
		m.toggleFocus()
	}
	m.refresh()
	m.viewport.GotoTop()
}

func (m *AnalyzeModel) copyOptimized() {
	result := m.flow.Result()
	switch {
	case result == nil:
		m.notice = &codereview.Notice{Title: "Nothing to Copy", Description: "Run an analysis first.", Error: true}
	case m.cfg.clipboard == nil:
		m.notice = &codereview.Notice{Title: "Error", Description: "Clipboard is not available.", Error: true}
	default:
		if err := m.cfg.clipboard.Copy(result.OptimizedCode); err != nil {
			m.cfg.logger.Warn("copy failed", zap.Error(err))
			m.notice = &codereview.Notice{Title: "Error", Description: "Failed to copy to clipboard.", Error: true}
			return
		}
		m.notice = &codereview.Notice{Title: "Copied", Description: "Optimized code copied to clipboard."}
	}
}

func (m *AnalyzeModel) resize(width, height int) {
	m.width = width
	m.height = height

	body := max(height-chromeLines, 2)
	editorHeight := max(body/2, 1)
	resultsHeight := max(body-editorHeight, 1)

	m.editor.SetWidth(width)
	m.editor.SetHeight(editorHeight)

	if !m.ready {
		m.viewport = viewport.New(width, resultsHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = resultsHeight
	}
	m.refresh()
}

// refresh rebuilds the results pane.
func (m *AnalyzeModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.resultsContent())
}

func (m AnalyzeModel) resultsContent() string {
	cfg := m.cfg.render(m.width)
	result := m.flow.Result()
	if result == nil {
		hint := "Press " + m.keymap.Submit.Help().Key + " to analyze your code."
		return cfg.fg(cfg.palette.UIForeground).Render(hint)
	}

	heading := cfg.fg(cfg.palette.UIAccent).Bold(true)

	var sb strings.Builder
	if result.Summary != "" {
		sb.WriteString(heading.Render("Summary"))
		sb.WriteString("\n")
		sb.WriteString(cfg.fg(cfg.palette.Foreground).Render(wrap("", result.Summary, m.width)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderCounts(cfg, result.CountByType()))
	sb.WriteString("\n\n")

	sb.WriteString(heading.Render("Issues"))
	sb.WriteString("\n")
	sb.WriteString(renderIssues(cfg, result.Issues))
	sb.WriteString("\n")

	if m.showDiff && m.cfg.differ != nil {
		sb.WriteString(heading.Render("Changes"))
		sb.WriteString("\n")
		sb.WriteString(renderDiff(cfg, m.diff, m.flow.Request().Language))
	} else {
		sb.WriteString(heading.Render("Optimized Code"))
		sb.WriteString("\n")
		sb.WriteString(renderCode(cfg, m.flow.Request().Language, result.OptimizedCode))
	}
	return sb.String()
}

// View implements tea.Model.
func (m AnalyzeModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	cfg := m.cfg.render(m.width)

	var sb strings.Builder
	sb.WriteString(m.headerView(cfg))
	sb.WriteString("\n")
	sb.WriteString(m.editor.View())
	sb.WriteString("\n")
	sb.WriteString(m.resultsTitleView(cfg))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.statusView(cfg))
	return sb.String()
}

func (m AnalyzeModel) headerView(cfg renderConfig) string {
	title := cfg.fg(cfg.palette.UIAccent).Bold(true).Render("Code Review")
	info := "Language: " + m.language
	if m.fileName != "" {
		info = m.fileName + " · " + info
	}
	return padLine(title+"  "+cfg.fg(cfg.palette.UIForeground).Render(info), m.width)
}

func (m AnalyzeModel) resultsTitleView(cfg renderConfig) string {
	label := cfg.fg(cfg.palette.UIForeground)
	var status string
	switch m.flow.State() {
	case codereview.FlowSubmitting:
		status = m.spinner.View() + " Analyzing..."
	case codereview.FlowSucceeded:
		status = codereview.IssuesLabel(m.flow.IssuesCount())
	case codereview.FlowFailed:
		status = "Last analysis failed"
	default:
		status = "No results yet"
	}
	line := "── Results · " + status + " "
	if m.focus == paneResults {
		return cfg.fg(cfg.palette.UIAccent).Render(line)
	}
	return label.Render(line)
}

func (m AnalyzeModel) statusView(cfg renderConfig) string {
	if m.notice != nil {
		return renderNotice(cfg, *m.notice)
	}
	km := m.keymap
	var help string
	if m.focus == paneEditor {
		help = helpLine(km.Submit, km.Language, km.Focus, km.ForceQuit)
	} else {
		help = helpLine(km.Up, km.Down, km.Copy, km.ToggleDiff, km.Back, km.Quit)
	}
	return cfg.fg(cfg.palette.UIForeground).Render(help)
}
