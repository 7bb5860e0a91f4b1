package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/talentmatch/messaging-service/internal/messenger"
	"github.com/talentmatch/messaging-service/internal/model"
)

type conversationsMsg struct {
	conversations model.ConversationPreviewList
}

type messagesMsg struct {
	conversationID string
	messages       model.MessageList
}

type sendFailedMsg struct {
	message model.Message
	err     error
}

type sideEffectsMsg struct {
	message model.Message
	results []messenger.SideEffectResult
}

type errMsg struct {
	err error
}

// Relay is a session observer that forwards notifications to a running
// program in order. It queues instead of blocking the session loop.
type Relay struct {
	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewRelay() *Relay {
	return &Relay{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Attach starts delivering queued and future notifications to p.
func (r *Relay) Attach(p *tea.Program) {
	r.attach(p.Send)
}

func (r *Relay) attach(send func(tea.Msg)) {
	go r.pump(send)
}

func (r *Relay) Close() {
	r.once.Do(func() { close(r.done) })
}

func (r *Relay) pump(send func(tea.Msg)) {
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()

		for _, msg := range batch {
			send(msg)
		}

		select {
		case <-r.done:
			return
		case <-r.notify:
		}
	}
}

func (r *Relay) push(msg tea.Msg) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Relay) ConversationsChanged(conversations model.ConversationPreviewList) {
	r.push(conversationsMsg{conversations: conversations})
}

func (r *Relay) MessagesChanged(conversationID string, messages model.MessageList) {
	r.push(messagesMsg{conversationID: conversationID, messages: messages})
}

func (r *Relay) SendFailed(message model.Message, err error) {
	r.push(sendFailedMsg{message: message, err: err})
}

func (r *Relay) SideEffectsDone(message model.Message, results []messenger.SideEffectResult) {
	r.push(sideEffectsMsg{message: message, results: results})
}
