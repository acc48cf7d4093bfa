package tui

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// replyMsg carries the answer to one sent event.
type replyMsg struct {
	err   error
	reply model.Reply
}

type focusArea int

const (
	focusButtons focusArea = iota
	focusInput
)

// entry is one line of the transcript.
type entry struct {
	text     string
	fromUser bool
}

// Model is a chat console in front of an EventHandler.
type Model struct {
	ctx        context.Context
	handler    EventHandler
	lastErr    error
	theme      themes.Theme
	keymap     KeyMap
	input      textinput.Model
	transcript []entry
	rows       [][]model.Button
	config     Config
	userID     int64
	cursor     int
	width      int
	height     int
	focus      focusArea
	sending    bool
	quitting   bool
}

func newModel(ctx context.Context, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Type here, or tab to the buttons"
	input.CharLimit = 256

	return Model{
		ctx:     ctx,
		handler: cfg.Handler,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		input:   input,
		config:  cfg,
		userID:  cfg.UserID,
		width:   cfg.Width,
		height:  cfg.Height,
		focus:   focusInput,
	}
}

// Init opens the conversation with the main menu.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.send(model.EventText, "/start"))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case replyMsg:
		m.sending = false
		m.lastErr = msg.err
		m.record(entry{text: msg.reply.Text})
		m.rows = msg.reply.Buttons
		m.cursor = 0
		if len(m.rows) > 0 {
			m.setFocus(focusButtons)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keymap.ToggleFocus) {
		if m.focus == focusInput && len(m.rows) > 0 {
			m.setFocus(focusButtons)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	}
	if m.sending {
		return m, nil
	}

	if m.focus == focusInput {
		switch {
		case key.Matches(msg, m.keymap.Press):
			text := m.input.Value()
			m.input.Reset()
			m.record(entry{text: text, fromUser: true})
			cmd := m.send(model.EventText, text)
			return m, cmd
		case key.Matches(msg, m.keymap.Back) && len(m.rows) > 0:
			m.setFocus(focusButtons)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	buttons := m.buttons()
	switch {
	case key.Matches(msg, m.keymap.Prev):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Next):
		if m.cursor < len(buttons)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Press):
		if m.cursor < len(buttons) {
			b := buttons[m.cursor]
			m.record(entry{text: "[" + b.Label + "]", fromUser: true})
			cmd := m.send(model.EventButton, b.Token)
			return m, cmd
		}
	case key.Matches(msg, m.keymap.Back):
		m.record(entry{text: "[back]", fromUser: true})
		cmd := m.send(model.EventButton, "nav|back")
		return m, cmd
	case msg.Type == tea.KeyRunes:
		// Typing while on the buttons switches to the input.
		m.setFocus(focusInput)
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// send hands one event to the handler off the UI goroutine.
func (m *Model) send(kind model.EventKind, payload string) tea.Cmd {
	m.sending = true
	handler, ctx, userID := m.handler, m.ctx, m.userID
	return func() tea.Msg {
		reply, err := handler.Handle(ctx, model.Event{Kind: kind, Payload: payload, UserID: userID})
		return replyMsg{reply: reply, err: err}
	}
}

func (m *Model) record(e entry) {
	m.transcript = append(m.transcript, e)
	if limit := m.config.History; limit > 0 && len(m.transcript) > limit {
		m.transcript = m.transcript[len(m.transcript)-limit:]
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) buttons() []model.Button {
	var out []model.Button
	for _, row := range m.rows {
		out = append(out, row...)
	}
	return out
}
