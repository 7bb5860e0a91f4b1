package messenger

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/mailtpl"
)

const (
	EffectConversationSummary = "conversation_summary"
	EffectNotification        = "notification"
	EffectEmail               = "email"
)

// SideEffect is a best-effort task attached to a stored message.
type SideEffect struct {
	Name string
	Run  func(ctx context.Context) error
}

type SideEffectResult struct {
	Effect SideEffect
	Err    error
}

func (r SideEffectResult) Retry(ctx context.Context) error {
	return r.Effect.Run(ctx)
}

// RunSideEffects runs every effect concurrently; one failing never stops the
// others. Results keep the order of effects.
func RunSideEffects(ctx context.Context, effects []SideEffect) []SideEffectResult {
	results := make([]SideEffectResult, len(effects))

	var g errgroup.Group
	for i, effect := range effects {
		results[i].Effect = effect
		g.Go(func() error {
			results[i].Err = effect.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Session) sideEffects(message model.Message, kind string) []SideEffect {
	link := mailtpl.Link(s.baseURL, message.ConversationID)
	preview := mailtpl.Preview(message.Content)

	effects := []SideEffect{
		{
			Name: EffectConversationSummary,
			Run: func(ctx context.Context) error {
				return storeError("update conversation summary",
					s.store.UpdateConversationSummary(ctx, message.ConversationID, message.Content, message.CreatedAt))
			},
		},
		{
			Name: EffectNotification,
			Run: func(ctx context.Context) error {
				return storeError("create notification", s.store.CreateNotification(ctx, &model.Notification{
					UserID:  message.ReceiverID,
					Type:    kind,
					Content: notificationText(kind, preview),
					Link:    link,
				}))
			},
		},
	}

	if s.mailer != nil {
		effects = append(effects, SideEffect{
			Name: EffectEmail,
			Run: func(ctx context.Context) error {
				mail, err := s.renderer.Render(kind, mailtpl.Data{
					SenderName: s.displayName(ctx, message.SenderID),
					Preview:    preview,
					Link:       link,
				})
				if err != nil {
					return errors.Wrap(err, "render email")
				}
				return errors.Wrap(
					s.mailer.SendNotification(ctx, message.ReceiverID, mail.Subject, mail.HTML, mail.Text),
					"send email",
				)
			},
		})
	}

	return effects
}

func (s *Session) runSideEffects(message model.Message, kind string) {
	ctx, cancel := s.detached()
	defer cancel()

	results := RunSideEffects(ctx, s.sideEffects(message, kind))
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn(fmt.Sprintf("side effect %s failed for message %s: %v", r.Effect.Name, message.ID, r.Err))
		}
	}

	s.post(sideEffectsFinished{message: message, results: results})
}

func (s *Session) displayName(ctx context.Context, identity string) string {
	if s.profiles == nil {
		return model.Profile{ID: identity}.DisplayName()
	}

	profiles, err := s.profiles.GetProfiles(ctx, []string{identity})
	if err != nil {
		s.logger.Warn(fmt.Sprintf("failed to resolve sender profile: %v", err))
	}
	if p, ok := profiles[identity]; ok {
		return p.DisplayName()
	}
	return model.Profile{ID: identity}.DisplayName()
}

func notificationText(kind, preview string) string {
	if kind == model.NotificationApplication {
		return "New application: " + preview
	}
	return "New message: " + preview
}
