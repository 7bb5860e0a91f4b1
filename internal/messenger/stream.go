package messenger

import (
	"sort"

	"github.com/talentmatch/messaging-service/internal/model"
)

// stream is the message list of the active conversation, always ascending by
// CreatedAt. Owned by the session loop.
type stream struct {
	conversationID string
	messages       model.MessageList
}

func (s *stream) reset(conversationID string) {
	s.conversationID = conversationID
	s.messages = nil
}

func (s *stream) snapshot() model.MessageList {
	out := make(model.MessageList, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *stream) indexByID(id string) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *stream) indexByClientID(clientID string) int {
	if clientID == "" {
		return -1
	}
	for i, m := range s.messages {
		if m.ClientID == clientID {
			return i
		}
	}
	return -1
}

func (s *stream) contains(id string) bool {
	return s.indexByID(id) >= 0
}

// insert places m after every entry with the same or an earlier timestamp.
func (s *stream) insert(m model.Message) {
	i := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].CreatedAt.After(m.CreatedAt)
	})
	s.messages = append(s.messages, model.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = m
}

func (s *stream) remove(i int) {
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
}

// appendIncoming adds a durable message unless its id is already present.
func (s *stream) appendIncoming(m model.Message) bool {
	if s.contains(m.ID) {
		return false
	}
	m.State = model.MessageConfirmed
	s.insert(m)
	return true
}

// addPending shows a locally composed message before it is stored.
func (s *stream) addPending(m model.Message) {
	s.insert(m)
}

// confirm replaces the local entry carrying clientID with its durable row. The
// durable row may already be present when the realtime echo won the race, then
// the local entry is just dropped.
func (s *stream) confirm(clientID string, durable model.Message) bool {
	i := s.indexByClientID(clientID)
	if i < 0 {
		return false
	}
	if s.messages[i].ID == durable.ID {
		return false
	}

	s.remove(i)
	durable.State = model.MessageConfirmed
	if j := s.indexByID(durable.ID); j >= 0 {
		s.messages[j] = durable
		return true
	}
	s.insert(durable)
	return true
}

func (s *stream) fail(clientID string) bool {
	i := s.indexByClientID(clientID)
	if i < 0 || s.messages[i].State != model.MessagePending {
		return false
	}
	s.messages[i].State = model.MessageFailed
	return true
}

// replaceHistory installs loaded history. Entries that arrived while the load
// was in flight and local entries the history does not know yet are kept.
func (s *stream) replaceHistory(history model.MessageList) {
	ids := make(map[string]struct{}, len(history))
	clientIDs := make(map[string]struct{}, len(history))
	for _, m := range history {
		ids[m.ID] = struct{}{}
		if m.ClientID != "" {
			clientIDs[m.ClientID] = struct{}{}
		}
	}

	kept := make(model.MessageList, 0)
	for _, m := range s.messages {
		if m.IsLocal() {
			if _, ok := clientIDs[m.ClientID]; ok {
				continue
			}
		} else if _, ok := ids[m.ID]; ok {
			continue
		}
		kept = append(kept, m)
	}

	s.messages = make(model.MessageList, 0, len(history)+len(kept))
	for _, m := range history {
		if s.contains(m.ID) {
			continue
		}
		m.State = model.MessageConfirmed
		s.insert(m)
	}
	for _, m := range kept {
		s.insert(m)
	}
}

// markRead flags every message addressed to identity as read.
func (s *stream) markRead(identity string) bool {
	changed := false
	for i := range s.messages {
		m := &s.messages[i]
		if m.ReceiverID == identity && !m.IsRead && !m.IsLocal() {
			m.IsRead = true
			changed = true
		}
	}
	return changed
}
