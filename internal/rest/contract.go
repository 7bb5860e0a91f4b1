//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"
	"time"

	api "github.com/talentmatch/messaging-service/internal/generated"
	"github.com/talentmatch/messaging-service/internal/model"
)

type DBRepo interface {
	GetConversations(ctx context.Context, identity string) (model.ConversationPreviewList, error)
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	FindOrCreateConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, bool, error)
	UpdateConversationSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error
	GetMessages(ctx context.Context, conversationID string) (model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) (*model.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, identity string) (int64, error)
	CreateNotification(ctx context.Context, notification *model.Notification) error
	GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error)

	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type Validator interface {
	ValidateCreateConversation(req *api.CreateConversationRequest, requesterID string) error
	ValidateSendMessage(req *api.SendMessageRequest) error
	ValidateUpdateConversation(req *api.UpdateConversationRequest) error
	ValidateCreateNotification(req *api.CreateNotificationRequest) error
}

type JWTGenerator interface {
	GenerateConnectToken(userID string) (string, int64, error)
	GenerateSubscribeToken(userID, conversationID string) (string, int64, error)
}
