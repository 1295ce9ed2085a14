package types

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
}

func (a SubmitTextAction) Type() string { return "submit_text" }

// View actions
type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type ToggleStatsAction struct{}

func (a ToggleStatsAction) Type() string { return "toggle_stats" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for Esc
}

func (a QuitAction) Type() string { return "quit" }
