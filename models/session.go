package models

import "time"

// Role identifies who produced a conversation turn
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// Turn is one entry of a session's conversation history
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// SessionRecord holds the ordered conversation for one session.
// History[0], when present, is always the system instruction.
type SessionRecord struct {
	SessionID string    `json:"session_id"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSystemTurn reports whether the history already starts with the system instruction
func (r *SessionRecord) HasSystemTurn() bool {
	return len(r.History) > 0 && r.History[0].Role == RoleSystem
}

// EnsureSystemTurn inserts the system instruction at the head of the
// history unless one is already there.
func (r *SessionRecord) EnsureSystemTurn(instruction string) {
	if r.HasSystemTurn() {
		return
	}
	r.History = append([]Turn{{Role: RoleSystem, Text: instruction}}, r.History...)
}

// ChatRequest is the JSON body of an ask request
type ChatRequest struct {
	Message string `json:"message"`
}

// Answer is returned by the chat manager for one turn
type Answer struct {
	Text      string `json:"answerText"`
	SessionID string `json:"sessionId"`
}
