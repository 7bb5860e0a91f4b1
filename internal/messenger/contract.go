//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package messenger

import (
	"context"
	"time"

	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/changefeed"
	"github.com/talentmatch/messaging-service/internal/pkg/mailtpl"
)

type Store interface {
	GetConversations(ctx context.Context, identity string) (model.ConversationPreviewList, error)
	FindOrCreateConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, bool, error)
	UpdateConversationSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error
	GetMessages(ctx context.Context, conversationID string) (model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) (*model.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, identity string) (int64, error)
	CreateNotification(ctx context.Context, notification *model.Notification) error
}

type ProfileLookup interface {
	GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error)
}

type Feed interface {
	Subscribe(ctx context.Context, filter model.Filter) (changefeed.Subscription, error)
}

type Mailer interface {
	SendNotification(ctx context.Context, recipientID, subject, html, text string) error
}

type MailRenderer interface {
	Render(kind string, data mailtpl.Data) (mailtpl.Mail, error)
}

type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Observer is notified from the session loop; implementations must not block
// and must not call back into the session synchronously.
type Observer interface {
	ConversationsChanged(conversations model.ConversationPreviewList)
	MessagesChanged(conversationID string, messages model.MessageList)
	SendFailed(message model.Message, err error)
	SideEffectsDone(message model.Message, results []SideEffectResult)
}
