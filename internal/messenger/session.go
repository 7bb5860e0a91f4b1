package messenger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/backoff"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
	"github.com/talentmatch/messaging-service/internal/pkg/mailtpl"
	"github.com/talentmatch/messaging-service/internal/pkg/validator"
)

const (
	eventBuffer = 256
	sendTimeout = 30 * time.Second
)

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithBackoff(cfg backoff.Config) Option {
	return func(s *Session) {
		s.backoffCfg = cfg
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithAppBaseURL(baseURL string) Option {
	return func(s *Session) {
		s.baseURL = baseURL
	}
}

func WithRenderer(r MailRenderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

type subState struct {
	gen        uint64
	sub        changefeed.Subscription
	backoff    *backoff.Backoff
	recovering bool
}

// Session is the messaging engine of one signed-in identity. All state is
// owned by a single loop goroutine; store calls run on their own goroutines
// and post results back as events.
type Session struct {
	identity string
	store    Store
	profiles ProfileLookup
	feed     Feed
	mailer   Mailer
	renderer MailRenderer
	logger   Logger
	observer Observer

	baseURL    string
	backoffCfg backoff.Config
	now        func() time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan any
	stopped   chan struct{}
	running   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once

	// loop state
	dir            directory
	active         stream
	historyGen     uint64
	historyApplied uint64
	subs           [3]subState
	reads          *reconciler
	lastTempID     int64

	mu             sync.RWMutex
	snapshotDir    model.ConversationPreviewList
	snapshotConvID string
	snapshotMsgs   model.MessageList
}

func New(identity string, store Store, profiles ProfileLookup, feed Feed, mailer Mailer, logger Logger, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		identity:   identity,
		store:      store,
		profiles:   profiles,
		feed:       feed,
		mailer:     mailer,
		logger:     logger,
		observer:   nopObserver{},
		renderer:   mailtpl.New(),
		backoffCfg: backoff.DefaultConfig(),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		events:     make(chan any, eventBuffer),
		stopped:    make(chan struct{}),
		reads:      newReconciler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.subs {
		s.subs[i].backoff = backoff.New(s.backoffCfg)
	}

	return s
}

func (s *Session) Identity() string {
	return s.identity
}

// Start subscribes to the directory and inbox feeds and loads the directory.
// The session stops when ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) error {
	started := false
	s.startOnce.Do(func() {
		started = true
	})
	if !started {
		return ErrAlreadyStarted
	}
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}

	s.running.Store(true)
	context.AfterFunc(ctx, s.Close)
	go s.loop()

	return nil
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.running.Load() {
			<-s.stopped
		}
	})
}

// Open makes conversationID the active conversation. The message list is
// cleared at once; history loads after the realtime subscription is in place.
// Opening the already active conversation only re-reads it.
func (s *Session) Open(ctx context.Context, conversationID string) error {
	done := make(chan struct{})
	if err := s.request(ctx, openRequest{conversationID: conversationID, done: done}); err != nil {
		return err
	}
	return s.wait(ctx, done)
}

// Focus marks the active conversation read, e.g. when the window gains focus.
func (s *Session) Focus(ctx context.Context) error {
	return s.request(ctx, focusRequest{})
}

// Refresh reloads the directory and the active history.
func (s *Session) Refresh(ctx context.Context) error {
	return s.request(ctx, refreshRequest{})
}

// Send shows the message as pending right away and stores it in the
// background. Blank content is ignored. An empty conversationID resolves the
// conversation with receiverID first; an empty receiverID is taken from the
// loaded directory or the open history.
func (s *Session) Send(ctx context.Context, conversationID, receiverID, content string) (model.Message, error) {
	return s.send(ctx, conversationID, receiverID, content, model.NotificationMessage)
}

// Contact sends a cover letter to receiverID, creating the conversation when
// there is none yet.
func (s *Session) Contact(ctx context.Context, receiverID, coverLetter string) (model.Message, error) {
	return s.send(ctx, "", receiverID, coverLetter, model.NotificationApplication)
}

func (s *Session) send(ctx context.Context, conversationID, receiverID, content, kind string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, nil
	}
	if err := validator.CheckContent(content); err != nil {
		return model.Message{}, err
	}
	if !s.running.Load() || s.ctx.Err() != nil {
		return model.Message{}, ErrSessionClosed
	}

	if conversationID == "" {
		if receiverID == "" {
			return model.Message{}, ErrUnknownReceiver
		}
		conversation, _, err := s.store.FindOrCreateConversation(ctx, s.identity, receiverID)
		if err != nil {
			return model.Message{}, storeError("find or create conversation", err)
		}
		conversationID = conversation.ID
	}

	if receiverID == "" {
		var err error
		receiverID, err = s.receiverOf(conversationID)
		if err != nil {
			return model.Message{}, err
		}
	}

	req := &sendRequest{
		message: model.Message{
			ClientID:       uuid.NewString(),
			ConversationID: conversationID,
			SenderID:       s.identity,
			ReceiverID:     receiverID,
			Content:        content,
			CreatedAt:      s.now(),
			State:          model.MessagePending,
		},
		kind: kind,
		done: make(chan struct{}),
	}
	if err := s.request(ctx, req); err != nil {
		return model.Message{}, err
	}
	if err := s.wait(ctx, req.done); err != nil {
		return model.Message{}, err
	}

	return req.message, nil
}

// receiverOf answers from the published directory and the open history only,
// so the pending bubble never waits on the store. A conversation the session
// has not loaded yet has no known receiver.
func (s *Session) receiverOf(conversationID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.snapshotDir.Find(conversationID); ok {
		return c.CompanionID(s.identity), nil
	}
	if s.snapshotConvID == conversationID {
		for _, m := range s.snapshotMsgs {
			if m.SenderID == s.identity && m.ReceiverID != "" {
				return m.ReceiverID, nil
			}
			if m.ReceiverID == s.identity && m.SenderID != "" {
				return m.SenderID, nil
			}
		}
	}
	return "", ErrUnknownReceiver
}

// LoadConversations reads the directory straight from the store.
func (s *Session) LoadConversations(ctx context.Context) (model.ConversationPreviewList, error) {
	return loadConversations(ctx, s.store, s.profiles, s.logger, s.identity)
}

// LoadHistory reads the messages of a conversation straight from the store.
func (s *Session) LoadHistory(ctx context.Context, conversationID string) (model.MessageList, error) {
	messages, err := s.store.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, storeError("load history", err)
	}
	return messages, nil
}

// MarkRead marks conversationID read for the identity without going through the loop.
func (s *Session) MarkRead(ctx context.Context, conversationID string) (int64, error) {
	n, err := s.store.MarkConversationRead(ctx, conversationID, s.identity)
	if err != nil {
		return 0, storeError("mark conversation read", err)
	}
	return n, nil
}

func (s *Session) Conversations() model.ConversationPreviewList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.ConversationPreviewList, len(s.snapshotDir))
	copy(out, s.snapshotDir)
	return out
}

func (s *Session) Messages() (string, model.MessageList) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.MessageList, len(s.snapshotMsgs))
	copy(out, s.snapshotMsgs)
	return s.snapshotConvID, out
}

func (s *Session) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotConvID
}

func (s *Session) request(ctx context.Context, ev any) error {
	if !s.running.Load() || s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands an event to the loop. It reports false once the session is closed.
func (s *Session) post(ev any) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Session) detached() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(s.ctx), sendTimeout)
}

func (s *Session) loop() {
	defer close(s.stopped)
	defer s.teardown()

	s.subscribe(subDirectory)
	s.subscribe(subInbox)

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) teardown() {
	for i := range s.subs {
		if s.subs[i].sub != nil {
			_ = s.subs[i].sub.Close()
			s.subs[i].sub = nil
		}
	}
}

func (s *Session) handle(ev any) {
	switch e := ev.(type) {
	case subscribed:
		s.onSubscribed(e)
	case subscriptionLost:
		s.onSubscriptionLost(e)
	case resubscribe:
		if e.gen == s.subs[e.kind].gen {
			s.subscribe(e.kind)
		}
	case pushed:
		if e.gen == s.subs[e.kind].gen {
			s.onPushed(e.kind, e.event)
		}
	case conversationsLoaded:
		s.onConversationsLoaded(e)
	case historyLoaded:
		s.onHistoryLoaded(e)
	case openRequest:
		s.onOpen(e)
	case focusRequest:
		s.requestMarkRead(s.active.conversationID)
	case refreshRequest:
		s.reloadDirectory()
		s.loadHistory()
	case *sendRequest:
		s.onSend(e)
	case insertDone:
		s.onInsertDone(e)
	case sideEffectsFinished:
		s.observer.SideEffectsDone(e.message, e.results)
	case readMarked:
		s.onReadMarked(e)
	}
}

func (s *Session) filterFor(kind subKind) (model.Filter, bool) {
	switch kind {
	case subDirectory:
		return model.Filter{
			Table:   model.TableConversations,
			Columns: []string{"participant1_id", "participant2_id"},
			Value:   s.identity,
		}, true
	case subInbox:
		return model.Filter{
			Table:   model.TableMessages,
			Columns: []string{"receiver_id"},
			Value:   s.identity,
			Kinds:   []model.ChangeKind{model.ChangeInsert},
		}, true
	case subConversation:
		if s.active.conversationID == "" {
			return model.Filter{}, false
		}
		return model.Filter{
			Table:   model.TableMessages,
			Columns: []string{"conversation_id"},
			Value:   s.active.conversationID,
			Kinds:   []model.ChangeKind{model.ChangeInsert},
		}, true
	}
	return model.Filter{}, false
}

func (s *Session) subscribe(kind subKind) {
	s.unsubscribe(kind)

	filter, ok := s.filterFor(kind)
	if !ok {
		return
	}

	gen := s.subs[kind].gen
	ctx := s.ctx
	go func() {
		sub, err := s.feed.Subscribe(ctx, filter)
		if !s.post(subscribed{kind: kind, gen: gen, sub: sub, err: err}) && sub != nil {
			_ = sub.Close()
		}
	}()
}

// unsubscribe drops the current subscription of kind; events still queued
// for it carry an older generation and are ignored.
func (s *Session) unsubscribe(kind subKind) {
	st := &s.subs[kind]
	if st.sub != nil {
		_ = st.sub.Close()
		st.sub = nil
	}
	st.gen++
}

func (s *Session) onSubscribed(e subscribed) {
	st := &s.subs[e.kind]
	if e.gen != st.gen {
		if e.sub != nil {
			_ = e.sub.Close()
		}
		return
	}

	recovering := st.recovering
	if e.err != nil {
		s.logger.Warn(fmt.Sprintf("failed to subscribe to %s changes: %v", e.kind, e.err))
		st.recovering = true
		s.scheduleResubscribe(e.kind)
	} else {
		st.sub = e.sub
		st.recovering = false
		st.backoff.MarkConnected()
		go s.forward(e.kind, e.gen, e.sub)
	}

	switch {
	case recovering:
		if e.err == nil {
			s.reloadDirectory()
			s.loadHistory()
		}
	case e.kind == subDirectory:
		s.reloadDirectory()
	case e.kind == subConversation:
		s.loadHistory()
	}
}

func (s *Session) forward(kind subKind, gen uint64, sub changefeed.Subscription) {
	for change := range sub.Events() {
		ev, ok := Classify(change)
		if !ok {
			continue
		}
		if !s.post(pushed{kind: kind, gen: gen, event: ev}) {
			return
		}
	}
	s.post(subscriptionLost{kind: kind, gen: gen})
}

func (s *Session) onSubscriptionLost(e subscriptionLost) {
	st := &s.subs[e.kind]
	if e.gen != st.gen {
		return
	}

	s.logger.Warn(fmt.Sprintf("%s changes: %v", e.kind, ErrSubscriptionLost))
	st.sub = nil
	st.recovering = true
	s.scheduleResubscribe(e.kind)
}

func (s *Session) scheduleResubscribe(kind subKind) {
	st := &s.subs[kind]
	delay, ok := st.backoff.Next()
	if !ok {
		s.logger.Error(fmt.Sprintf("giving up on %s changes after %d attempts", kind, st.backoff.Attempt()))
		return
	}

	gen := st.gen
	time.AfterFunc(delay, func() {
		s.post(resubscribe{kind: kind, gen: gen})
	})
}

func (s *Session) onPushed(kind subKind, ev PushEvent) {
	switch e := ev.(type) {
	case FeedReconnected:
		switch kind {
		case subDirectory:
			s.reloadDirectory()
		case subConversation:
			s.loadHistory()
		}
	case ConversationChanged:
		s.reloadDirectory()
	case MessageInserted:
		if kind == subInbox {
			s.onInboxMessage(e.Message)
			return
		}
		s.applyIncoming(e.Message)
		if e.Message.ReceiverID == s.identity {
			s.requestMarkRead(e.Message.ConversationID)
		}
	}
}

// onInboxMessage handles a message addressed to the identity in any
// conversation. The active one is read at once; others show up through the
// directory.
func (s *Session) onInboxMessage(m model.Message) {
	if s.active.conversationID != "" && m.ConversationID == s.active.conversationID {
		s.requestMarkRead(m.ConversationID)
		s.applyIncoming(m)
		return
	}
	s.reloadDirectory()
}

// applyIncoming merges a durable message into the active stream. The echo of
// an own message only confirms its pending entry.
func (s *Session) applyIncoming(m model.Message) {
	if m.ConversationID != s.active.conversationID {
		return
	}

	var changed bool
	if m.SenderID == s.identity {
		changed = s.active.confirm(m.ClientID, m)
	} else {
		changed = s.active.appendIncoming(m)
	}
	if changed {
		s.publishMessages()
	}
}

func (s *Session) reloadDirectory() {
	gen := s.dir.begin()
	ctx := s.ctx
	go func() {
		conversations, err := loadConversations(ctx, s.store, s.profiles, s.logger, s.identity)
		s.post(conversationsLoaded{gen: gen, conversations: conversations, err: err})
	}()
}

func (s *Session) onConversationsLoaded(e conversationsLoaded) {
	if e.err != nil {
		s.logger.Warn(fmt.Sprintf("failed to reload conversations: %v", e.err))
		return
	}
	if s.dir.apply(e.gen, e.conversations) {
		s.publishConversations()
	}
}

func (s *Session) loadHistory() {
	conversationID := s.active.conversationID
	if conversationID == "" {
		return
	}

	s.historyGen++
	gen := s.historyGen
	ctx := s.ctx
	go func() {
		messages, err := s.store.GetMessages(ctx, conversationID)
		s.post(historyLoaded{
			conversationID: conversationID,
			gen:            gen,
			messages:       messages,
			err:            storeError("load history", err),
		})
	}()
}

func (s *Session) onHistoryLoaded(e historyLoaded) {
	if e.conversationID != s.active.conversationID || e.gen < s.historyApplied {
		return
	}
	if e.err != nil {
		s.logger.Warn(fmt.Sprintf("failed to load conversation %s: %v", e.conversationID, e.err))
		return
	}

	s.historyApplied = e.gen
	s.active.replaceHistory(e.messages)
	s.publishMessages()
	s.requestMarkRead(e.conversationID)
}

func (s *Session) onOpen(e openRequest) {
	defer close(e.done)

	if e.conversationID == s.active.conversationID {
		s.requestMarkRead(e.conversationID)
		return
	}

	s.active.reset(e.conversationID)
	s.publishMessages()

	st := &s.subs[subConversation]
	st.recovering = false
	st.backoff.Reset()
	s.subscribe(subConversation)
}

func (s *Session) onSend(req *sendRequest) {
	m := req.message
	m.ID = s.nextTempID()
	req.message = m

	if m.ConversationID == s.active.conversationID {
		s.active.addPending(m)
		s.publishMessages()
	}
	close(req.done)

	go func() {
		ctx, cancel := s.detached()
		defer cancel()

		row := m
		row.ID = ""
		row.State = model.MessageConfirmed
		saved, err := s.store.SaveMessage(ctx, &row)
		s.post(insertDone{pending: m, kind: req.kind, saved: saved, err: storeError("save message", err)})
	}()
}

func (s *Session) onInsertDone(e insertDone) {
	if e.err != nil {
		s.logger.Error(fmt.Sprintf("failed to send message %s: %v", e.pending.ID, e.err))
		if e.pending.ConversationID == s.active.conversationID && s.active.fail(e.pending.ClientID) {
			s.publishMessages()
		}
		failed := e.pending
		failed.State = model.MessageFailed
		s.observer.SendFailed(failed, e.err)
		return
	}

	saved := *e.saved
	if saved.ConversationID == s.active.conversationID && s.active.confirm(e.pending.ClientID, saved) {
		s.publishMessages()
	}

	go s.runSideEffects(saved, e.kind)
}

// nextTempID is unique within the session even when the clock stalls.
func (s *Session) nextTempID() string {
	n := s.now().UnixNano()
	if n <= s.lastTempID {
		n = s.lastTempID + 1
	}
	s.lastTempID = n
	return model.TempIDPrefix + strconv.FormatInt(n, 10)
}

func (s *Session) requestMarkRead(conversationID string) {
	if conversationID == "" {
		return
	}
	if s.reads.request(conversationID) {
		s.launchMarkRead(conversationID)
	}
}

func (s *Session) launchMarkRead(conversationID string) {
	ctx := s.ctx
	go func() {
		n, err := s.store.MarkConversationRead(ctx, conversationID, s.identity)
		s.post(readMarked{conversationID: conversationID, updated: n, err: err})
	}()
}

func (s *Session) onReadMarked(e readMarked) {
	if e.err != nil {
		s.logger.Warn(fmt.Sprintf("failed to mark conversation %s read: %v", e.conversationID, e.err))
	} else {
		if e.conversationID == s.active.conversationID && s.active.markRead(s.identity) {
			s.publishMessages()
		}
		if e.updated > 0 {
			s.reloadDirectory()
		}
	}

	if s.reads.done(e.conversationID) {
		s.launchMarkRead(e.conversationID)
	}
}

func (s *Session) publishConversations() {
	s.mu.Lock()
	s.snapshotDir = s.dir.conversations
	s.mu.Unlock()

	s.observer.ConversationsChanged(s.Conversations())
}

func (s *Session) publishMessages() {
	messages := s.active.snapshot()

	s.mu.Lock()
	s.snapshotConvID = s.active.conversationID
	s.snapshotMsgs = messages
	s.mu.Unlock()

	_, out := s.Messages()
	s.observer.MessagesChanged(s.active.conversationID, out)
}

type nopObserver struct{}

func (nopObserver) ConversationsChanged(model.ConversationPreviewList) {}
func (nopObserver) MessagesChanged(string, model.MessageList)          {}
func (nopObserver) SendFailed(model.Message, error)                    {}
func (nopObserver) SideEffectsDone(model.Message, []SideEffectResult)  {}
