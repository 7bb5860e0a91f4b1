package model

import (
	"time"
)

// MessageState is a client-side tag; the store only ever holds confirmed rows.
type MessageState string

const (
	MessagePending   MessageState = "pending"
	MessageConfirmed MessageState = "confirmed"
	MessageFailed    MessageState = "failed"
)

const TempIDPrefix = "tmp-"

type MessageList []Message

type Message struct {
	ID             string       `db:"id" json:"id"`
	ClientID       string       `db:"client_id" json:"client_id,omitempty"`
	ConversationID string       `db:"conversation_id" json:"conversation_id"`
	SenderID       string       `db:"sender_id" json:"sender_id"`
	ReceiverID     string       `db:"receiver_id" json:"receiver_id"`
	Content        string       `db:"content" json:"content"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	IsRead         bool         `db:"is_read" json:"is_read"`
	State          MessageState `db:"-" json:"-"`
}

func (m Message) IsLocal() bool {
	return m.State == MessagePending || m.State == MessageFailed
}

// Column exposes filterable columns of the row by name.
func (m Message) Column(name string) string {
	switch name {
	case "id":
		return m.ID
	case "client_id":
		return m.ClientID
	case "conversation_id":
		return m.ConversationID
	case "sender_id":
		return m.SenderID
	case "receiver_id":
		return m.ReceiverID
	}
	return ""
}

// UnreadFor counts messages addressed to identity that are still unread.
func (l MessageList) UnreadFor(identity string) int {
	n := 0
	for _, m := range l {
		if m.ReceiverID == identity && !m.IsRead {
			n++
		}
	}
	return n
}
