package model

import (
	"slices"
)

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"

	// ChangeReconnect is emitted by a feed after its connection was restored;
	// changes may have been missed in between.
	ChangeReconnect ChangeKind = "reconnect"
)

const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableNotifications = "notifications"
)

// ChangeEvent is one row change delivered by a change feed. Exactly one of
// Message and Conversation is set, depending on Table.
type ChangeEvent struct {
	Table        string        `json:"table"`
	Kind         ChangeKind    `json:"kind"`
	Message      *Message      `json:"message,omitempty"`
	Conversation *Conversation `json:"conversation,omitempty"`
}

func (e ChangeEvent) Column(name string) string {
	switch {
	case e.Message != nil:
		return e.Message.Column(name)
	case e.Conversation != nil:
		return e.Conversation.Column(name)
	}
	return ""
}

// Filter selects change events of one table where any of Columns equals Value.
// Empty fields match everything.
type Filter struct {
	Table   string
	Columns []string
	Value   string
	Kinds   []ChangeKind
}

func (f Filter) Matches(e ChangeEvent) bool {
	if e.Kind == ChangeReconnect {
		return true
	}
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if len(f.Columns) == 0 {
		return true
	}
	for _, c := range f.Columns {
		if e.Column(c) == f.Value {
			return true
		}
	}
	return false
}
