package models

import "time"

// Role identifies the author of a ledger message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a session's conversation ledger. Timestamp is a
// strictly increasing per-session sequence that totally orders the ledger;
// CreatedAt is wall-clock and informational only. Messages are created
// once by the router and never mutated.
type Message struct {
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}
