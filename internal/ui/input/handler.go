package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"greetr/internal/ui/input/types"
)

// Handler turns key presses into actions. Keys without a binding edit the
// buffer.
type Handler struct {
	buffer *Buffer
	keys   KeyMap
}

func New(placeholder string) *Handler {
	return &Handler{
		buffer: NewBuffer(placeholder),
		keys:   DefaultKeyMap(),
	}
}

func (h *Handler) HandleKey(msg tea.KeyMsg) ([]types.Action, tea.Cmd) {
	switch {
	case key.Matches(msg, h.keys.ForceQuit):
		return []types.Action{types.QuitAction{Force: true}}, nil
	case key.Matches(msg, h.keys.Quit):
		return []types.Action{types.QuitAction{}}, nil
	case key.Matches(msg, h.keys.Submit):
		return []types.Action{types.SubmitTextAction{Text: h.buffer.Value()}}, nil
	case key.Matches(msg, h.keys.ToggleStats):
		return []types.Action{types.ToggleStatsAction{}}, nil
	case key.Matches(msg, h.keys.ToggleHelp):
		return []types.Action{types.ToggleHelpAction{}}, nil
	}

	before := h.buffer.Value()
	cmd := h.buffer.Update(msg)
	if after := h.buffer.Value(); after != before {
		return []types.Action{types.UpdateTextAction{Text: after}}, cmd
	}
	return nil, cmd
}

// Update handles non-keyboard messages for the buffer
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	return h.buffer.Update(msg)
}

// Init returns the initial command for the handler
func (h *Handler) Init() tea.Cmd {
	return h.buffer.Init()
}

// Buffer returns the text buffer
func (h *Handler) Buffer() *Buffer {
	return h.buffer
}

// Keys returns the key bindings, for help rendering
func (h *Handler) Keys() KeyMap {
	return h.keys
}
