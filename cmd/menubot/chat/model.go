package chat

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"menubot/cmd/menubot/ui"
	"menubot/internal/bot"
	"menubot/internal/logging"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Handler consumes console input. *bot.Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, in bot.Inbound) error
}

// Config holds configuration for the console.
type Config struct {
	UserID   int64
	Operator bool
	Styles   ui.Styles
}

// Focus selects which component receives keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusKeyboard
)

// entry is one line of the transcript.
type entry struct {
	fromUser bool
	text     string
}

// handledMsg reports the dispatcher's verdict on one submitted line.
type handledMsg struct{ err error }

// Model is the console bubbletea model.
type Model struct {
	ctx     context.Context
	handler Handler
	sender  *Sender
	cfg     Config
	styles  ui.Styles

	viewport viewport.Model
	input    textinput.Model
	history  []entry

	keyboard [][]string
	selRow   int
	selCol   int
	focus    Focus

	width, height int
	ready         bool
	err           error
}

// NewModel builds the console model. The dispatcher must deliver through
// sender.
func NewModel(ctx context.Context, h Handler, sender *Sender, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, Tab for buttons"
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Focus()

	return Model{
		ctx:      ctx,
		handler:  h,
		sender:   sender,
		cfg:      cfg,
		styles:   cfg.Styles,
		input:    ti,
		viewport: viewport.New(80, 20),
	}
}

// Init sends /start so the console opens on the main menu.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.sender.wait(), m.submit("/start"))
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.chromeHeight(), 3)
		m.ready = true
		m.refresh()
		return m, nil

	case replyMsg:
		m.history = append(m.history, entry{text: msg.reply.Text})
		if k := msg.reply.Keyboard; k != nil {
			if k.Remove {
				m.keyboard = nil
			} else {
				m.keyboard = k.Rows
			}
			m.selRow, m.selCol = 0, 0
			if len(m.keyboard) == 0 {
				m.focus = FocusInput
			}
		}
		m.refresh()
		return m, m.sender.wait()

	case handledMsg:
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, bot.ErrEmptyInput) && !errors.Is(msg.err, bot.ErrUnauthorized) {
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		if m.focus == FocusInput && len(m.keyboard) > 0 {
			m.focus = FocusKeyboard
			m.input.Blur()
		} else {
			m.focus = FocusInput
			m.input.Focus()
		}
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == FocusKeyboard {
		switch msg.Type {
		case tea.KeyUp:
			m.moveSelection(-1, 0)
		case tea.KeyDown:
			m.moveSelection(1, 0)
		case tea.KeyLeft:
			m.moveSelection(0, -1)
		case tea.KeyRight:
			m.moveSelection(0, 1)
		case tea.KeyEnter:
			if label, ok := m.selected(); ok {
				m.history = append(m.history, entry{fromUser: true, text: label})
				m.refresh()
				return m, m.submit(label)
			}
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		text := m.input.Value()
		m.input.SetValue("")
		m.history = append(m.history, entry{fromUser: true, text: text})
		m.refresh()
		return m, m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands text to the dispatcher off the UI goroutine.
func (m Model) submit(text string) tea.Cmd {
	h, ctx, uid := m.handler, m.ctx, m.cfg.UserID
	return func() tea.Msg {
		err := h.Handle(ctx, bot.Inbound{UserID: uid, ChatID: uid, Text: text})
		if err != nil {
			logging.Get(logging.CategoryTransport).Debug("console input %q: %v", text, err)
		}
		return handledMsg{err: err}
	}
}

func (m *Model) moveSelection(dRow, dCol int) {
	if len(m.keyboard) == 0 {
		return
	}
	m.selRow = clamp(m.selRow+dRow, 0, len(m.keyboard)-1)
	m.selCol = clamp(m.selCol+dCol, 0, len(m.keyboard[m.selRow])-1)
}

func (m Model) selected() (string, bool) {
	if m.selRow < 0 || m.selRow >= len(m.keyboard) {
		return "", false
	}
	row := m.keyboard[m.selRow]
	if m.selCol < 0 || m.selCol >= len(row) {
		return "", false
	}
	return row[m.selCol], true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	parts := []string{m.renderHeader(), m.viewport.View()}
	if kb := m.renderKeyboard(); kb != "" {
		parts = append(parts, kb)
	}
	if m.err != nil {
		parts = append(parts, m.styles.Error.Render("error: "+m.err.Error()))
	}
	parts = append(parts, m.input.View(), m.styles.Footer.Render("Enter send · Tab buttons · PgUp/PgDn scroll · Esc quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	role := "reader"
	if m.cfg.Operator {
		role = "operator"
	}
	return m.styles.Header.Render(fmt.Sprintf(" menubot console · user %d (%s) ", m.cfg.UserID, role))
}

func (m Model) renderKeyboard() string {
	selRow := -1
	if m.focus == FocusKeyboard {
		selRow = m.selRow
	}
	return m.styles.RenderKeyboard(m.keyboard, selRow, m.selCol)
}

func (m Model) renderHistory() string {
	var b strings.Builder
	for i, e := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.fromUser {
			b.WriteString(m.styles.UserInput.Render("you: " + e.text))
		} else {
			b.WriteString(m.styles.BotResponse.Render(PlainText(e.text)))
		}
	}
	return b.String()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// chromeHeight is the number of lines around the transcript.
func (m Model) chromeHeight() int {
	h := 3
	if kb := m.renderKeyboard(); kb != "" {
		h += lipgloss.Height(kb)
	}
	return h
}

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// PlainText strips Telegram HTML markup for terminal display.
func PlainText(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
