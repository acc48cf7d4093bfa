package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	replies map[string]model.Reply
	err     error
	events  []model.Event
	mu      sync.Mutex
}

func (h *recordingHandler) Handle(_ context.Context, event model.Event) (model.Reply, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	if reply, ok := h.replies[event.Payload]; ok {
		return reply, h.err
	}
	return model.Reply{Text: "echo " + event.Payload}, h.err
}

var menu = model.Reply{
	Text: "What do you want to do?",
	Buttons: [][]model.Button{
		{{Label: "💸 Expense", Token: "menu|expense"}, {Label: "🛒 Shopping", Token: "menu|shopping"}},
		{{Label: "💼 Work", Token: "menu|work"}},
	},
}

func newTestModel(h *recordingHandler) Model {
	cfg := defaultConfig()
	cfg.Handler = h
	cfg.UserID = 42
	return newModel(context.Background(), cfg)
}

// step feeds msg to m and, when that sent an event, delivers the reply.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if !m.sending {
		return m
	}
	require.NotNil(t, cmd)
	reply, ok := cmd().(replyMsg)
	require.True(t, ok)
	next, _ = m.Update(reply)
	return next.(Model)
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestModel_StartShowsMenu(t *testing.T) {
	h := &recordingHandler{replies: map[string]model.Reply{"/start": menu}}
	m := newTestModel(h)

	cmd := m.send(model.EventText, "/start")
	assert.True(t, m.sending)
	m = step(t, m, cmd())

	assert.False(t, m.sending)
	assert.Equal(t, focusButtons, m.focus)
	assert.Len(t, m.buttons(), 3)
	require.Len(t, h.events, 1)
	assert.Equal(t, model.Event{Kind: model.EventText, Payload: "/start", UserID: 42}, h.events[0])
	assert.Contains(t, m.View(), "💸 Expense")
}

func TestModel_ButtonNavigation(t *testing.T) {
	h := &recordingHandler{}
	m := newTestModel(h)
	m = step(t, m, replyMsg{reply: menu})

	m = step(t, m, keyMsg(tea.KeyLeft))
	assert.Equal(t, 0, m.cursor, "cursor stays on the first button")

	m = step(t, m, keyMsg(tea.KeyRight))
	m = step(t, m, keyMsg(tea.KeyRight))
	m = step(t, m, keyMsg(tea.KeyRight))
	assert.Equal(t, 2, m.cursor, "cursor stops on the last button")

	m = step(t, m, keyMsg(tea.KeyEnter))
	require.Len(t, h.events, 1)
	assert.Equal(t, model.Event{Kind: model.EventButton, Payload: "menu|work", UserID: 42}, h.events[0])
	assert.Equal(t, "echo menu|work", m.transcript[len(m.transcript)-1].text)
	assert.Empty(t, m.rows)
	assert.Equal(t, focusInput, m.focus)
}

func TestModel_EscapeSendsBack(t *testing.T) {
	h := &recordingHandler{}
	m := newTestModel(h)
	m = step(t, m, replyMsg{reply: menu})

	step(t, m, keyMsg(tea.KeyEsc))
	require.Len(t, h.events, 1)
	assert.Equal(t, "nav|back", h.events[0].Payload)
	assert.Equal(t, model.EventButton, h.events[0].Kind)
}

func TestModel_TypingSendsText(t *testing.T) {
	h := &recordingHandler{}
	m := newTestModel(h)
	m = step(t, m, replyMsg{reply: menu})

	m = step(t, m, runes("4"))
	assert.Equal(t, focusInput, m.focus, "typing leaves the buttons")
	m = step(t, m, runes("5,00"))
	assert.Equal(t, "45,00", m.input.Value())

	m = step(t, m, keyMsg(tea.KeyEnter))
	require.Len(t, h.events, 1)
	assert.Equal(t, model.Event{Kind: model.EventText, Payload: "45,00", UserID: 42}, h.events[0])
	assert.Empty(t, m.input.Value())

	var fromUser []string
	for _, e := range m.transcript {
		if e.fromUser {
			fromUser = append(fromUser, e.text)
		}
	}
	assert.Equal(t, []string{"45,00"}, fromUser)
}

func TestModel_IgnoresKeysWhileSending(t *testing.T) {
	h := &recordingHandler{}
	m := newTestModel(h)
	m = step(t, m, replyMsg{reply: menu})

	next, cmd := m.Update(keyMsg(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.sending)

	_, second := m.Update(keyMsg(tea.KeyEnter))
	assert.Nil(t, second)
	assert.Contains(t, m.View(), "sending")
}

func TestModel_ToggleFocusAndQuit(t *testing.T) {
	m := newTestModel(&recordingHandler{})
	m = step(t, m, replyMsg{reply: menu})
	assert.Equal(t, focusButtons, m.focus)

	m = step(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, focusInput, m.focus)
	m = step(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, focusButtons, m.focus)

	next, cmd := m.Update(keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())
}

func TestModel_ShowsRejection(t *testing.T) {
	h := &recordingHandler{err: fmt.Errorf("%w: user 42", common.ErrUnauthorized)}
	m := newTestModel(h)

	cmd := m.send(model.EventText, "/start")
	m = step(t, m, cmd())
	assert.Contains(t, m.View(), "not allowed")
}

func TestModel_TranscriptIsBounded(t *testing.T) {
	m := newTestModel(&recordingHandler{})
	m.config.History = 3
	for i := 0; i < 10; i++ {
		m = step(t, m, replyMsg{reply: model.Reply{Text: fmt.Sprintf("line %d", i)}})
	}
	require.Len(t, m.transcript, 3)
	assert.Equal(t, "line 9", m.transcript[2].text)
}

func TestRun_RequiresHandler(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, 1))
}
