package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"greetr/internal/domain"
)

// Stats are the session counters shown in the footer
type Stats struct {
	Requests       int
	CacheHits      int
	StaleDiscarded int
	Keys           int
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width     int
	Height    int
	TextInput string
	State     domain.RequestState
	Spinner   string
	ShowStats bool
	Stats     Stats
	HelpModel help.Model
	KeyMap    help.KeyMap
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.styles.Title.Render("greetr"))
	content.WriteString("\n")

	content.WriteString(r.styles.Input.Render(state.TextInput))
	content.WriteString("\n")

	content.WriteString(r.styles.Result.Render(r.RenderResult(state.State, state.Spinner)))
	content.WriteString("\n")

	if state.ShowStats {
		content.WriteString(r.styles.Stats.Render(RenderStats(state.Stats)))
		content.WriteString("\n")
	}

	if state.KeyMap != nil {
		content.WriteString(r.styles.Help.Render(state.HelpModel.View(state.KeyMap)))
	}

	main := r.styles.Main
	if state.Width > 0 {
		main = main.MaxWidth(state.Width)
	}
	if state.Height > 0 {
		main = main.MaxHeight(state.Height)
	}
	return main.Render(content.String())
}

// RenderResult renders exactly one of the loading, error and greeting
// branches for s
func (r *Renderer) RenderResult(s domain.RequestState, spinner string) string {
	switch s.Status {
	case domain.StatusPending:
		text := "Loading..."
		if spinner != "" {
			text = lipgloss.JoinHorizontal(lipgloss.Top, spinner, " ", text)
		}
		return r.styles.StatusLoading.Render(text)
	case domain.StatusFailure:
		return r.styles.StatusError.Render("Error: " + s.Reason)
	case domain.StatusSuccess:
		return r.styles.Greeting.Render(s.Data)
	default:
		return r.styles.Dim.Render("Type a name and press enter, or leave it empty.")
	}
}

// RenderStats renders the footer counters
func RenderStats(s Stats) string {
	return fmt.Sprintf("requests %d · cache hits %d · stale %d · keys %d",
		s.Requests, s.CacheHits, s.StaleDiscarded, s.Keys)
}
