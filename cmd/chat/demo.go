package main

import (
	"context"
	"fmt"
	"time"

	"github.com/talentmatch/messaging-service/internal/messenger"
	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/repository/memory"
)

const (
	demoCandidate = "5f0c7d0e-1c1a-4f55-9d0e-6a3b1a2d0001"
	demoAcme      = "5f0c7d0e-1c1a-4f55-9d0e-6a3b1a2d0002"
	demoGlobex    = "5f0c7d0e-1c1a-4f55-9d0e-6a3b1a2d0003"

	botDelay = 1500 * time.Millisecond
	demoURL  = "http://localhost:3000"
)

var demoProfiles = []model.Profile{
	{ID: demoCandidate, Nickname: "Jordan Lee"},
	{ID: demoAcme, Nickname: "Acme Talent"},
	{ID: demoGlobex, Nickname: "Globex Hiring"},
}

var demoReplies = map[string][]string{
	demoAcme: {
		"Thanks! Could you share your availability for a call this week?",
		"Great, I'll send an invite shortly.",
	},
	demoGlobex: {
		"Appreciate the quick reply. The team will review your portfolio.",
	},
}

type demoMessage struct {
	from, to, content string
	ago               time.Duration
}

var demoHistory = []demoMessage{
	{from: demoAcme, to: demoCandidate, content: "Hi Jordan, we loved your application for the backend role.", ago: 26 * time.Hour},
	{from: demoCandidate, to: demoAcme, content: "Thank you! I'm very interested.", ago: 25 * time.Hour},
	{from: demoAcme, to: demoCandidate, content: "Are you open to relocating?", ago: 3 * time.Hour},
	{from: demoGlobex, to: demoCandidate, content: "Hello! Is your profile still up to date?", ago: 40 * time.Minute},
}

func seedDemo(ctx context.Context, store *memory.Store) error {
	for _, p := range demoProfiles {
		if err := store.UpsertProfile(ctx, p); err != nil {
			return err
		}
	}

	now := time.Now()
	for _, m := range demoHistory {
		at := now.Add(-m.ago)
		store.SetClock(func() time.Time { return at })

		conversation, _, err := store.FindOrCreateConversation(ctx, m.from, m.to)
		if err != nil {
			return err
		}
		if _, err := store.SaveMessage(ctx, &model.Message{
			ConversationID: conversation.ID,
			SenderID:       m.from,
			ReceiverID:     m.to,
			Content:        m.content,
		}); err != nil {
			return err
		}
		if err := store.UpdateConversationSummary(ctx, conversation.ID, m.content, at); err != nil {
			return err
		}
	}
	store.SetClock(time.Now)

	// the first exchange has been read by the candidate
	conversation, _, err := store.FindOrCreateConversation(ctx, demoAcme, demoCandidate)
	if err != nil {
		return err
	}
	_, err = store.MarkConversationRead(ctx, conversation.ID, demoCandidate)
	return err
}

// runBot answers every message addressed to botID with the next canned reply.
func runBot(ctx context.Context, store *memory.Store, botID string, logger messenger.Logger) {
	sub, err := store.Subscribe(ctx, model.Filter{
		Table:   model.TableMessages,
		Columns: []string{"receiver_id"},
		Value:   botID,
		Kinds:   []model.ChangeKind{model.ChangeInsert},
	})
	if err != nil {
		logger.Warn(fmt.Sprintf("demo bot %s not started: %v", botID, err))
		return
	}
	defer sub.Close() //nolint:errcheck // .

	replies := demoReplies[botID]
	next := 0

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if event.Message == nil || len(replies) == 0 {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(botDelay):
			}

			reply := replies[next%len(replies)]
			next++

			in := event.Message
			if _, err := store.SaveMessage(ctx, &model.Message{
				ConversationID: in.ConversationID,
				SenderID:       botID,
				ReceiverID:     in.SenderID,
				Content:        reply,
			}); err != nil {
				logger.Warn(fmt.Sprintf("demo bot %s failed to reply: %v", botID, err))
				continue
			}
			if err := store.UpdateConversationSummary(ctx, in.ConversationID, reply, time.Now()); err != nil {
				logger.Warn(fmt.Sprintf("demo bot %s failed to update summary: %v", botID, err))
			}
		}
	}
}

// openDemoBackend runs a session on a seeded in-memory store. Bots answer
// for every demo identity other than the one the session acts as.
func openDemoBackend(ctx context.Context, identity string, logger messenger.Logger, opts ...messenger.Option) (*backend, error) {
	if identity == "" {
		identity = demoCandidate
	}

	store := memory.New()
	if err := seedDemo(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to seed demo store: %w", err)
	}

	botCtx, stopBots := context.WithCancel(ctx)
	for botID := range demoReplies {
		if botID != identity {
			go runBot(botCtx, store, botID, logger)
		}
	}

	opts = append([]messenger.Option{messenger.WithAppBaseURL(demoURL)}, opts...)

	return &backend{
		session: messenger.New(identity, store, store, store, memory.NewMailbox(), logger, opts...),
		closers: []func(){stopBots, store.Close},
	}, nil
}
