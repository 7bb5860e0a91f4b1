package messenger

import (
	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
)

// PushEvent is a change pushed by the feed, after classification.
type PushEvent interface {
	pushEvent()
}

type MessageInserted struct {
	Message model.Message
}

type ConversationChanged struct {
	Kind         model.ChangeKind
	Conversation model.Conversation
}

// FeedReconnected means changes may have been missed.
type FeedReconnected struct{}

func (MessageInserted) pushEvent()     {}
func (ConversationChanged) pushEvent() {}
func (FeedReconnected) pushEvent()     {}

// Classify maps a raw change event to a push event. Changes the engine does
// not act on are reported as not ok.
func Classify(ev model.ChangeEvent) (PushEvent, bool) {
	if ev.Kind == model.ChangeReconnect {
		return FeedReconnected{}, true
	}

	switch ev.Table {
	case model.TableMessages:
		if ev.Kind != model.ChangeInsert || ev.Message == nil {
			return nil, false
		}
		return MessageInserted{Message: *ev.Message}, true
	case model.TableConversations:
		if ev.Conversation == nil {
			return nil, false
		}
		return ConversationChanged{Kind: ev.Kind, Conversation: *ev.Conversation}, true
	}

	return nil, false
}

type subKind int

const (
	subDirectory subKind = iota
	subInbox
	subConversation
)

func (k subKind) String() string {
	switch k {
	case subDirectory:
		return "directory"
	case subInbox:
		return "inbox"
	case subConversation:
		return "conversation"
	}
	return "unknown"
}

// loop events

type pushed struct {
	kind  subKind
	gen   uint64
	event PushEvent
}

type subscribed struct {
	kind subKind
	gen  uint64
	sub  changefeed.Subscription
	err  error
}

type subscriptionLost struct {
	kind subKind
	gen  uint64
}

type resubscribe struct {
	kind subKind
	gen  uint64
}

type conversationsLoaded struct {
	gen           uint64
	conversations model.ConversationPreviewList
	err           error
}

type historyLoaded struct {
	conversationID string
	gen            uint64
	messages       model.MessageList
	err            error
}

type openRequest struct {
	conversationID string
	done           chan struct{}
}

type focusRequest struct{}

type refreshRequest struct{}

type sendRequest struct {
	message model.Message
	kind    string
	done    chan struct{}
}

type insertDone struct {
	pending model.Message
	kind    string
	saved   *model.Message
	err     error
}

type sideEffectsFinished struct {
	message model.Message
	results []SideEffectResult
}

type readMarked struct {
	conversationID string
	updated        int64
	err            error
}
