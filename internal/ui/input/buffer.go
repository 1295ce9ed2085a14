package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Buffer holds the text the user is typing before it is submitted. Editing
// it never touches the query engine.
type Buffer struct {
	textInput textinput.Model
}

// NewBuffer creates an empty, focused buffer. Its length is unlimited.
func NewBuffer(placeholder string) *Buffer {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()
	return &Buffer{textInput: ti}
}

// Value returns the current text
func (b *Buffer) Value() string {
	return b.textInput.Value()
}

// SetValue replaces the current text
func (b *Buffer) SetValue(value string) {
	b.textInput.SetValue(value)
}

// Update applies a key or blink message to the text field
func (b *Buffer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	b.textInput, cmd = b.textInput.Update(msg)
	return cmd
}

// SetWidth limits the visible width of the field
func (b *Buffer) SetWidth(width int) {
	b.textInput.Width = width
}

func (b *Buffer) View() string {
	return b.textInput.View()
}

// Init starts the cursor blinking
func (b *Buffer) Init() tea.Cmd {
	return textinput.Blink
}
