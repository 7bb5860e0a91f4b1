package model

import (
	"time"
)

type ConversationList []Conversation

type Conversation struct {
	ID             string    `db:"id" json:"id"`
	Participant1ID string    `db:"participant1_id" json:"participant1_id"`
	Participant2ID string    `db:"participant2_id" json:"participant2_id"`
	LastMessage    string    `db:"last_message" json:"last_message"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (c Conversation) HasParticipant(identity string) bool {
	return c.Participant1ID == identity || c.Participant2ID == identity
}

// CompanionID returns the participant that is not identity.
func (c Conversation) CompanionID(identity string) string {
	if c.Participant1ID == identity {
		return c.Participant2ID
	}
	return c.Participant1ID
}

func (c Conversation) Column(name string) string {
	switch name {
	case "id":
		return c.ID
	case "participant1_id":
		return c.Participant1ID
	case "participant2_id":
		return c.Participant2ID
	}
	return ""
}

type ConversationPreviewList []ConversationPreview

// ConversationPreview is one directory row as seen by a participant.
type ConversationPreview struct {
	Conversation
	UnreadCount int     `db:"unread_count" json:"unread_count"`
	Companion   Profile `db:"-" json:"companion"`
}

func (l ConversationPreviewList) Find(conversationID string) (ConversationPreview, bool) {
	for _, c := range l {
		if c.ID == conversationID {
			return c, true
		}
	}
	return ConversationPreview{}, false
}

func (l ConversationPreviewList) TotalUnread() int {
	n := 0
	for _, c := range l {
		n += c.UnreadCount
	}
	return n
}
