package types

// Action represents a command the model should execute
type Action interface {
	Type() string
}
