// Package viewer is a scrolling pager over a highlighted document. Only the
// visible window is highlighted, through the document's random-access
// highlighter, so jumping to the end of a large file costs a replay from the
// nearest checkpoint instead of a full pass.
package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/rowlight/internal/document"
	"github.com/zjrosen/rowlight/internal/keys"
	"github.com/zjrosen/rowlight/internal/log"
	"github.com/zjrosen/rowlight/internal/pubsub"
	"github.com/zjrosen/rowlight/internal/render"
)

// FileChangedMsg reports that the watched file was written.
type FileChangedMsg struct{}

// fileReadMsg carries the result of re-reading the file.
type fileReadMsg struct {
	text string
	err  error
}

// Config wires a Model to its document and surroundings.
type Config struct {
	Context     context.Context
	Highlighter *document.Highlighter
	Lines       *document.Lines
	Theme       *render.Theme // nil renders without color
	TabWidth    int
	LineNumbers bool
	Title       string

	// Changes, if set, delivers a value whenever the file changes on disk.
	Changes <-chan struct{}
	// ReadFile, if set, returns the current file content for reloads.
	ReadFile func() (string, error)
}

// Model is the pager state.
type Model struct {
	ctx      context.Context
	hl       *document.Highlighter
	lines    *document.Lines
	theme    *render.Theme
	tabWidth int
	numbers  bool
	title    string

	changes  <-chan struct{}
	readFile func() (string, error)
	edits    *pubsub.ContinuousListener[document.Edit]

	keys     keys.ViewerKeyMap
	help     help.Model
	showHelp bool

	top    int
	width  int
	height int
	status string
}

// New creates a pager. Lines and Highlighter must describe the same document.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		ctx:      ctx,
		hl:       cfg.Highlighter,
		lines:    cfg.Lines,
		theme:    cfg.Theme,
		tabWidth: cfg.TabWidth,
		numbers:  cfg.LineNumbers,
		title:    cfg.Title,
		changes:  cfg.Changes,
		readFile: cfg.ReadFile,
		keys:     keys.Viewer,
		help:     help.New(),
		width:    80,
		height:   24,
	}
	m.edits = pubsub.NewContinuousListener[document.Edit](ctx, cfg.Lines.Broker())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.edits.Listen()}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

func (m Model) readCmd() tea.Cmd {
	if m.readFile == nil {
		return nil
	}
	read := m.readFile
	return func() tea.Msg {
		text, err := read()
		return fileReadMsg{text: text, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case FileChangedMsg:
		log.Debug(log.CatUI, "File changed", "title", m.title)
		return m, tea.Batch(m.readCmd(), waitForChange(m.changes))

	case fileReadMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatUI, "Reload failed", msg.err, "title", m.title)
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		first, err := m.hl.Reload(msg.text)
		switch {
		case err != nil:
			m.status = "reload failed: " + err.Error()
		case first < 0:
			m.status = "unchanged"
		default:
			m.status = fmt.Sprintf("reloaded from row %d", first+1)
		}
		m.clamp()
		return m, nil

	case pubsub.Event[document.Edit]:
		m.hl.Invalidate(msg.Payload.FirstRow)
		m.clamp()
		log.Debug(log.CatUI, "Document edited", "type", msg.Type, "row", msg.Payload.FirstRow)
		return m, m.edits.Listen()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.pageHeight()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.top++
	case key.Matches(msg, m.keys.Up):
		m.top--
	case key.Matches(msg, m.keys.PageDown):
		m.top += page
	case key.Matches(msg, m.keys.PageUp):
		m.top -= page
	case key.Matches(msg, m.keys.HalfDown):
		m.top += max(page/2, 1)
	case key.Matches(msg, m.keys.HalfUp):
		m.top -= max(page/2, 1)
	case key.Matches(msg, m.keys.Top):
		m.top = 0
	case key.Matches(msg, m.keys.Bottom):
		m.top = m.hl.Rows()
	case key.Matches(msg, m.keys.ToggleNumbers):
		m.numbers = !m.numbers
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Reload):
		return m, m.readCmd()
	}
	m.clamp()
	return m, nil
}

// pageHeight is the number of document rows on screen.
func (m Model) pageHeight() int {
	h := m.height - 1 // status bar
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	return max(h, 1)
}

// clamp keeps the last page full when the document is longer than the screen.
func (m *Model) clamp() {
	m.top = min(m.top, m.hl.Rows()-m.pageHeight())
	m.top = max(m.top, 0)
}

// Top returns the first visible row.
func (m Model) Top() int {
	return m.top
}

// View implements tea.Model.
func (m Model) View() string {
	total := m.hl.Rows()
	end := min(m.top+m.pageHeight(), total)

	width := m.width
	if m.numbers {
		width -= render.GutterWidth(total)
	}
	opts := render.Options{TabWidth: m.tabWidth, Width: max(width, 1)}

	var b strings.Builder
	for i, spans := range m.hl.Range(m.ctx, m.top, end) {
		row := m.top + i
		if m.numbers {
			b.WriteString(render.Gutter(row, total, false, m.theme))
		}
		b.WriteString(render.Line(m.lines.Text(row), spans, m.theme, opts))
		b.WriteByte('\n')
	}
	for i := end - m.top; i < m.pageHeight(); i++ {
		b.WriteString("~\n")
	}

	b.WriteString(m.statusBar(end, total))
	if m.showHelp {
		b.WriteByte('\n')
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) statusBar(end, total int) string {
	left := fmt.Sprintf("%s [%s]", m.title, m.hl.Language())
	right := fmt.Sprintf("%d-%d/%d", min(m.top+1, total), end, total)
	if m.status != "" {
		right = m.status + "  " + right
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	bar := left + strings.Repeat(" ", gap) + right
	if m.theme == nil {
		return bar
	}
	return m.theme.Status.MaxWidth(m.width).Render(bar)
}
