package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Input         lipgloss.Style
	Result        lipgloss.Style
	Greeting      lipgloss.Style
	Stats         lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	StatusError   lipgloss.Style
	StatusLoading lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Dim:   lipgloss.NewStyle().Faint(true),
		Input: lipgloss.NewStyle().MarginBottom(1),
		Result: lipgloss.NewStyle().
			MarginBottom(1),
		Greeting: lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true), // green
		Stats: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
	}
}
