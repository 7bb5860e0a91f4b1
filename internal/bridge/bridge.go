package bridge

import (
	"context"
	"fmt"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/backoff"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
)

const publishTimeout = 5 * time.Second

// Bridge republishes store changes to the realtime server.
type Bridge struct {
	feed      Feed
	publisher Publisher
	backoff   backoff.Config
}

func New(feed Feed, publisher Publisher, cfg backoff.Config) *Bridge {
	return &Bridge{
		feed:      feed,
		publisher: publisher,
		backoff:   cfg,
	}
}

// Run relays change events until ctx is done. A lost or failed subscription
// is retried with backoff; Run only returns an error once retries are
// exhausted.
func (b *Bridge) Run(ctx context.Context) error {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("Run")

	bo := backoff.New(b.backoff)
	for {
		sub, err := b.feed.Subscribe(ctx, model.Filter{})
		if err == nil {
			bo.MarkConnected()
			logger.Info("relaying change feed")
			b.relay(ctx, sub, logger)
			_ = sub.Close()
			err = fmt.Errorf("subscription lost")
		}

		if ctx.Err() != nil {
			return nil
		}
		delay, ok := bo.Next()
		if !ok {
			return fmt.Errorf("failed to subscribe to change feed: %v", err)
		}
		logger.Warn(fmt.Sprintf("change feed unavailable, retry in %s: %v", delay, err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (b *Bridge) relay(ctx context.Context, sub changefeed.Subscription, logger logger_lib.LoggerInterface) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			b.publish(ctx, event, logger)
		}
	}
}

func (b *Bridge) publish(ctx context.Context, event model.ChangeEvent, logger logger_lib.LoggerInterface) {
	channels := Channels(event)
	if len(channels) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.publisher.Broadcast(ctx, channels, event); err != nil {
		logger.Error(fmt.Sprintf("failed to publish %s %s: %v", event.Table, event.Kind, err))
	}
}

// Channels lists the realtime channels a change is delivered to.
func Channels(event model.ChangeEvent) []string {
	switch {
	case event.Kind == model.ChangeReconnect:
		return nil
	case event.Message != nil:
		m := event.Message
		return []string{
			model.ConversationChannel(m.ConversationID),
			model.UserChannel(m.SenderID),
			model.UserChannel(m.ReceiverID),
		}
	case event.Conversation != nil:
		c := event.Conversation
		return []string{
			model.UserChannel(c.Participant1ID),
			model.UserChannel(c.Participant2ID),
		}
	}
	return nil
}
