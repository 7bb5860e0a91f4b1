// Package memory is a process-local store with the same semantics as the
// postgres repository, including its change feed. It backs the demo client
// and the engine tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSameParticipant = errors.New("conversation requires two different participants")
)

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	pairs         map[string]string
	messages      map[string][]*model.Message
	notifications []model.Notification
	profiles      map[string]model.Profile

	hub *changefeed.Hub
	now func() time.Time
}

func New() *Store {
	return &Store{
		conversations: make(map[string]*model.Conversation),
		pairs:         make(map[string]string),
		messages:      make(map[string][]*model.Message),
		profiles:      make(map[string]model.Profile),
		hub:           changefeed.NewHub(),
		now:           time.Now,
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// SetClock replaces the clock used for server-assigned timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Close() {
	s.hub.Close()
}

func (s *Store) Subscribe(ctx context.Context, filter model.Filter) (changefeed.Subscription, error) {
	return s.hub.Subscribe(ctx, filter)
}

func (s *Store) Subscribers() int {
	return s.hub.Len()
}

// Reconnect simulates a feed reconnect.
func (s *Store) Reconnect() {
	s.hub.Publish(model.ChangeEvent{Kind: model.ChangeReconnect})
}

func (s *Store) GetConversations(ctx context.Context, identity string) (model.ConversationPreviewList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var list model.ConversationPreviewList
	for _, c := range s.conversations {
		if !c.HasParticipant(identity) {
			continue
		}
		unread := 0
		for _, m := range s.messages[c.ID] {
			if m.ReceiverID == identity && !m.IsRead {
				unread++
			}
		}
		list = append(list, model.ConversationPreview{Conversation: *c, UnreadCount: unread})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return list, nil
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) FindOrCreateConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if participantA == participantB {
		return nil, false, ErrSameParticipant
	}

	s.mu.Lock()
	key := pairKey(participantA, participantB)
	if id, ok := s.pairs[key]; ok {
		cp := *s.conversations[id]
		s.mu.Unlock()
		return &cp, false, nil
	}

	c := &model.Conversation{
		ID:             uuid.NewString(),
		Participant1ID: participantA,
		Participant2ID: participantB,
		UpdatedAt:      s.now(),
	}
	s.conversations[c.ID] = c
	s.pairs[key] = c.ID
	cp := *c
	s.mu.Unlock()

	s.hub.Publish(model.ChangeEvent{Table: model.TableConversations, Kind: model.ChangeInsert, Conversation: &cp})

	out := cp
	return &out, true, nil
}

func (s *Store) UpdateConversationSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	c, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	// A late summary never moves the preview backwards.
	if c.UpdatedAt.After(at) {
		s.mu.Unlock()
		return nil
	}
	c.LastMessage = lastMessage
	c.UpdatedAt = at
	cp := *c
	s.mu.Unlock()

	s.hub.Publish(model.ChangeEvent{Table: model.TableConversations, Kind: model.ChangeUpdate, Conversation: &cp})

	return nil
}

func (s *Store) GetMessages(ctx context.Context, conversationID string) (model.MessageList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.messages[conversationID]
	list := make(model.MessageList, 0, len(rows))
	for _, m := range rows {
		list = append(list, *m)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	return list, nil
}

func (s *Store) SaveMessage(ctx context.Context, message *model.Message) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.conversations[message.ConversationID]; !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	saved := &model.Message{
		ID:             uuid.NewString(),
		ClientID:       message.ClientID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Content:        message.Content,
		CreatedAt:      s.now(),
		State:          model.MessageConfirmed,
	}
	s.messages[saved.ConversationID] = append(s.messages[saved.ConversationID], saved)
	cp := *saved
	s.mu.Unlock()

	s.hub.Publish(model.ChangeEvent{Table: model.TableMessages, Kind: model.ChangeInsert, Message: &cp})

	out := cp
	return &out, nil
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationID, identity string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	var changed []model.Message
	for _, m := range s.messages[conversationID] {
		if m.ReceiverID == identity && !m.IsRead {
			m.IsRead = true
			changed = append(changed, *m)
		}
	}
	s.mu.Unlock()

	for i := range changed {
		s.hub.Publish(model.ChangeEvent{Table: model.TableMessages, Kind: model.ChangeUpdate, Message: &changed[i]})
	}

	return int64(len(changed)), nil
}

func (s *Store) CreateNotification(ctx context.Context, notification *model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notification.ID = uuid.NewString()
	notification.CreatedAt = s.now()
	s.notifications = append(s.notifications, *notification)

	return nil
}

func (s *Store) Notifications(userID string) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile model.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.profiles[profile.ID]
	current.ID = profile.ID
	if profile.Nickname != "" {
		current.Nickname = profile.Nickname
	}
	if profile.AvatarURL != "" {
		current.AvatarURL = profile.AvatarURL
	}
	s.profiles[profile.ID] = current

	return nil
}
