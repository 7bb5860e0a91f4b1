package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talentmatch/messaging-service/internal/model"
)

const (
	listWidth   = 32
	inputHeight = 3
)

var (
	accentColor = lipgloss.Color("39")
	metaColor   = lipgloss.Color("242")
	errorColor  = lipgloss.Color("203")
	unreadColor = lipgloss.Color("220")

	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(metaColor)
	activeStyle   = paneStyle.BorderForeground(accentColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	metaStyle     = lipgloss.NewStyle().Foreground(metaColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	unreadStyle   = lipgloss.NewStyle().Bold(true).Foreground(unreadColor)
)

// Session is the part of the messaging engine the client drives.
type Session interface {
	Identity() string
	Open(ctx context.Context, conversationID string) error
	Focus(ctx context.Context) error
	Refresh(ctx context.Context) error
	Send(ctx context.Context, conversationID, receiverID, content string) (model.Message, error)
}

type pane int

const (
	paneList pane = iota
	paneComposer
)

// Model is the interactive client: conversation list, message pane and
// composer. Session calls only ever run inside commands.
type Model struct {
	ctx     context.Context
	session Session

	conversations model.ConversationPreviewList
	cursor        int
	active        string
	messages      model.MessageList

	viewport viewport.Model
	input    textinput.Model
	focus    pane

	status string
	width  int
	height int
}

func NewModel(ctx context.Context, session Session) Model {
	input := textinput.New()
	input.Placeholder = "Write a message"
	input.Prompt = "› "
	input.CharLimit = 2000

	return Model{
		ctx:      ctx,
		session:  session,
		viewport: viewport.New(0, 0),
		input:    input,
		focus:    paneList,
	}
}

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.FocusMsg:
		return m, m.focusIn()

	case conversationsMsg:
		m.conversations = msg.conversations
		if m.cursor >= len(m.conversations) {
			m.cursor = max(len(m.conversations)-1, 0)
		}
		return m, nil

	case messagesMsg:
		if msg.conversationID != m.active {
			return m, nil
		}
		m.messages = msg.messages
		m.renderMessages()
		return m, nil

	case sendFailedMsg:
		m.status = errorStyle.Render(fmt.Sprintf("not sent: %v", msg.err))
		return m, nil

	case sideEffectsMsg:
		for _, r := range msg.results {
			if r.Err != nil {
				m.status = metaStyle.Render(fmt.Sprintf("sent, %s failed", r.Effect.Name))
				return m, nil
			}
		}
		return m, nil

	case errMsg:
		m.status = errorStyle.Render(msg.err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		return m, m.refresh()
	case "tab":
		m.toggleFocus()
		return m, nil
	}

	if m.focus == paneComposer {
		switch msg.String() {
		case "esc":
			m.toggleFocus()
			return m, nil
		case "enter":
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.conversations)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.conversations) == 0 {
			return m, nil
		}
		m.active = m.conversations[m.cursor].ID
		m.messages = nil
		m.status = ""
		m.renderMessages()
		m.toggleFocus()
		return m, m.open(m.active)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	content := m.input.Value()
	if strings.TrimSpace(content) == "" || m.active == "" {
		return m, nil
	}

	receiver := ""
	if c, ok := m.conversations.Find(m.active); ok {
		receiver = c.CompanionID(m.session.Identity())
	}

	m.input.SetValue("")
	m.status = ""

	ctx, session, conversationID := m.ctx, m.session, m.active
	return m, func() tea.Msg {
		if _, err := session.Send(ctx, conversationID, receiver, content); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *Model) toggleFocus() {
	if m.focus == paneList && m.active != "" {
		m.focus = paneComposer
		m.input.Focus()
		return
	}
	m.focus = paneList
	m.input.Blur()
}

func (m Model) refresh() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if err := session.Refresh(ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) open(conversationID string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if err := session.Open(ctx, conversationID); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) focusIn() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if err := session.Focus(ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *Model) resize() {
	w := m.width - listWidth - 4
	h := m.height - inputHeight - 4
	m.viewport.Width = max(w, 10)
	m.viewport.Height = max(h, 3)
	m.input.Width = max(w-4, 10)
	m.renderMessages()
}

func (m *Model) renderMessages() {
	me := m.session.Identity()

	var b strings.Builder
	for _, msg := range m.messages {
		author := "them"
		if msg.SenderID == me {
			author = "you"
		}

		line := fmt.Sprintf("%s %s: %s", metaStyle.Render(msg.CreatedAt.Format("15:04")), author, msg.Content)
		switch {
		case msg.State == model.MessagePending:
			line += metaStyle.Render(" …")
		case msg.State == model.MessageFailed:
			line += errorStyle.Render(" (failed)")
		case msg.SenderID == me && msg.IsRead:
			line += metaStyle.Render(" ✓✓")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) renderList() string {
	if len(m.conversations) == 0 {
		return metaStyle.Render("no conversations")
	}

	var b strings.Builder
	for i, c := range m.conversations {
		name := c.Companion.DisplayName()
		if c.UnreadCount > 0 {
			name = unreadStyle.Render(fmt.Sprintf("%s (%d)", name, c.UnreadCount))
		}
		if i == m.cursor {
			name = selectedStyle.Render("▸ ") + name
		} else {
			name = "  " + name
		}

		b.WriteString(name)
		b.WriteString("\n")
		b.WriteString(metaStyle.Render("  " + truncate(c.LastMessage, listWidth-4)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) View() string {
	listStyle, chatStyle := activeStyle, paneStyle
	if m.focus == paneComposer {
		listStyle, chatStyle = paneStyle, activeStyle
	}

	list := listStyle.Width(listWidth).Height(max(m.height-2, 1)).Render(m.renderList())

	body := metaStyle.Render("select a conversation")
	if m.active != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.input.View(), m.status)
	}
	chat := chatStyle.Width(max(m.width-listWidth-4, 10)).Render(body)

	return lipgloss.JoinHorizontal(lipgloss.Top, list, chat)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
