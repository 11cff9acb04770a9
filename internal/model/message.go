package model

import "time"

// MessageType mirrors messages.type.
type MessageType string

const (
	MessageChat    MessageType = "chat"
	MessageSupport MessageType = "support"
	MessageSystem  MessageType = "system"
)

// Message mirrors the `messages` table. RelatedTo optionally points at a
// product or bid id so a chat can be anchored to a negotiation.
type Message struct {
	ID         uint64
	SenderID   uint64
	ReceiverID uint64
	Content    string
	Type       MessageType
	Read       bool
	RelatedTo  *string
	CreatedAt  time.Time
}

// Conversation summarizes the latest exchange with one peer for the
// conversation list view.
type Conversation struct {
	PeerID      uint64
	PeerName    string
	LastMessage string
	LastAt      time.Time
	Unread      int
}
