package ui

import (
	"greetr/internal/domain"
)

// StateChangedMsg tells the model the active key's state may have changed.
// The model re-reads the engine on receipt; State may already be outdated.
type StateChangedMsg struct {
	State domain.RequestState
}

// startupSubmitMsg submits the empty key once the program is running
type startupSubmitMsg struct{}
