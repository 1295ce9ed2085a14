package domain

// Status represents where a request for a query key is in its lifecycle
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// RequestState is the state of the greeting request for one query key.
// Data is set on success, Reason and Err on failure.
type RequestState struct {
	Key    string
	Status Status
	Data   string
	Reason string
	Err    error
}

// IdleState returns the state of a key nothing has been requested for yet
func IdleState(key string) RequestState {
	return RequestState{Key: key, Status: StatusIdle}
}

// IsTerminal reports whether no further transition happens for this key
func (s RequestState) IsTerminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusFailure
}

// IsPending reports whether a request for the key is in flight
func (s RequestState) IsPending() bool {
	return s.Status == StatusPending
}
