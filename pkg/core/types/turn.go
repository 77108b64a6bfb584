// Package types defines the conversation data model shared across the
// dialog engine, the reply providers, and the gateway.
package types

import "time"

// Role identifies the speaker of a conversation turn.
type Role string

const (
	// RoleSystem is the persona instruction seeded at session creation.
	RoleSystem Role = "system"
	// RoleUser is the caller.
	RoleUser Role = "user"
	// RoleAssistant is the generated reply spoken back to the caller.
	RoleAssistant Role = "assistant"
)

// Turn is a single utterance in a call's conversation history. Turns are
// immutable once appended; ordering is conversation order.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	// At records when the turn was appended. Diagnostic only; it is not
	// sent to reply providers.
	At time.Time `json:"at,omitzero"`
}

// NewTurn creates a Turn stamped with the current time.
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text, At: time.Now().UTC()}
}

// IsValid reports whether the role is one of the three known speakers.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}
