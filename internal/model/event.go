// Package model defines the core domain types shared across the ledger.
package model

// EventKind distinguishes typed text from button presses.
type EventKind string

const (
	// EventText is free text typed by the user.
	EventText EventKind = "text"
	// EventButton is a button press carrying a token.
	EventButton EventKind = "button"
)

// Event is one inbound user action from the messaging side.
type Event struct {
	Kind    EventKind `json:"kind" validate:"required,oneof=text button"`
	Payload string    `json:"payload"`
	UserID  int64     `json:"user_id" validate:"required"`
}

// Button is a labelled action; Token is sent back verbatim when pressed.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Reply is what the messaging side should show the user next.
type Reply struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Flow names a conversation type.
type Flow string

const (
	FlowExpense  Flow = "expense"
	FlowShopping Flow = "shopping"
	FlowWork     Flow = "work"
)

// Valid reports whether f is a known flow.
func (f Flow) Valid() bool {
	switch f {
	case FlowExpense, FlowShopping, FlowWork:
		return true
	}
	return false
}
