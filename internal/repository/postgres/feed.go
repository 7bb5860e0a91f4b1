package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
)

const feedPingInterval = 90 * time.Second

type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

type notification struct {
	Table string           `json:"table"`
	Kind  model.ChangeKind `json:"kind"`
	ID    string           `json:"id"`
	Row   json.RawMessage  `json:"row"`
}

// Feed turns NOTIFY payloads of the chat triggers into change events.
type Feed struct {
	repo     *Repository
	listener *pq.Listener
	hub      *changefeed.Hub
	logger   Logger
	done     chan struct{}
	stopped  chan struct{}
}

func NewFeed(cfg *config.Config, repo *Repository, logger Logger) (*Feed, error) {
	return NewFeedFromDSN(cfg.Postgres.DSN(), cfg.Feed, repo, logger)
}

func NewFeedFromDSN(dsn string, cfg config.Feed, repo *Repository, logger Logger) (*Feed, error) {
	f := &Feed{
		repo:    repo,
		hub:     changefeed.NewHub(),
		logger:  logger,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	f.listener = pq.NewListener(dsn, cfg.MinReconnect, cfg.MaxReconnect, f.onListenerEvent)
	if err := f.listener.Listen(cfg.Channel); err != nil {
		_ = f.listener.Close()
		return nil, fmt.Errorf("failed to listen %s: %v", cfg.Channel, err)
	}

	go f.run()

	return f, nil
}

func (f *Feed) Subscribe(ctx context.Context, filter model.Filter) (changefeed.Subscription, error) {
	return f.hub.Subscribe(ctx, filter)
}

func (f *Feed) Close() {
	close(f.done)
	<-f.stopped
	_ = f.listener.Close()
	f.hub.Close()
}

func (f *Feed) onListenerEvent(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventDisconnected:
		f.logger.Warn(fmt.Sprintf("change feed disconnected: %v", err))
	case pq.ListenerEventConnectionAttemptFailed:
		f.logger.Warn(fmt.Sprintf("change feed reconnect attempt failed: %v", err))
	case pq.ListenerEventReconnected:
		f.logger.Info("change feed reconnected")
	}
}

func (f *Feed) run() {
	defer close(f.stopped)

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case n := <-f.listener.Notify:
			// pq delivers nil after re-establishing the connection
			if n == nil {
				f.hub.Publish(model.ChangeEvent{Kind: model.ChangeReconnect})
				continue
			}
			event, err := f.decode(n.Extra)
			if err != nil {
				f.logger.Error(fmt.Sprintf("failed to decode change notification: %v", err))
				continue
			}
			f.hub.Publish(event)
		case <-ticker.C:
			go func() {
				if err := f.listener.Ping(); err != nil {
					f.logger.Warn(fmt.Sprintf("change feed ping failed: %v", err))
				}
			}()
		}
	}
}

func (f *Feed) decode(payload string) (model.ChangeEvent, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("failed to unmarshal payload: %v", err)
	}

	event := model.ChangeEvent{Table: n.Table, Kind: n.Kind}

	switch n.Table {
	case model.TableMessages:
		message, err := f.messageRow(n)
		if err != nil {
			return model.ChangeEvent{}, err
		}
		event.Message = message
	case model.TableConversations:
		conversation, err := f.conversationRow(n)
		if err != nil {
			return model.ChangeEvent{}, err
		}
		event.Conversation = conversation
	default:
		return model.ChangeEvent{}, fmt.Errorf("unexpected table %q", n.Table)
	}

	return event, nil
}

func (f *Feed) messageRow(n notification) (*model.Message, error) {
	if len(n.Row) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return f.repo.GetMessage(ctx, n.ID)
	}

	var message model.Message
	if err := json.Unmarshal(n.Row, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message row: %v", err)
	}
	message.State = model.MessageConfirmed

	return &message, nil
}

func (f *Feed) conversationRow(n notification) (*model.Conversation, error) {
	if len(n.Row) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conversation, err := f.repo.GetConversation(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return &model.Conversation{ID: n.ID}, nil
		}
		return conversation, nil
	}

	var conversation model.Conversation
	if err := json.Unmarshal(n.Row, &conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation row: %v", err)
	}

	return &conversation, nil
}
