package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQuerySubmitted EventType = "QuerySubmitted"
	EventQueryResolved  EventType = "QueryResolved"
	EventStateChanged   EventType = "StateChanged"
	EventError          EventType = "Error"
	EventConfigLoaded   EventType = "ConfigLoaded"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QuerySubmittedEvent is emitted when a key becomes the active query key.
// CacheHit is true when the key already had an entry and no request was issued.
type QuerySubmittedEvent struct {
	Key      string
	CacheHit bool
}

func (e QuerySubmittedEvent) Type() EventType { return EventQuerySubmitted }

// QueryResolvedEvent is emitted when a request reaches a terminal state.
// Stale is true when the key was no longer active by then.
type QueryResolvedEvent struct {
	State RequestState
	Stale bool
}

func (e QueryResolvedEvent) Type() EventType { return EventQueryResolved }

// StateChangedEvent is emitted whenever the state shown for the active key changes
type StateChangedEvent struct {
	State RequestState
}

func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// ErrorEvent is emitted when a background service fails outside the query
// lifecycle, such as the metrics server
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted once the effective configuration is resolved
type ConfigLoadedEvent struct {
	Path     string
	Endpoint string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }
