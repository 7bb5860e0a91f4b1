package validator

import (
	"errors"
	"fmt"
	"strings"

	api "github.com/talentmatch/messaging-service/internal/generated"
	"github.com/talentmatch/messaging-service/internal/model"
)

const MaxContentLength = 2000

var (
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrContentTooLong = fmt.Errorf("content exceeds maximum length of %d characters", MaxContentLength)
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// CheckContent applies the message content rules shared by every send path.
func CheckContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	if len([]rune(content)) > MaxContentLength {
		return ErrContentTooLong
	}

	return nil
}

func (v *Validator) ValidateCreateConversation(req *api.CreateConversationRequest, requesterID string) error {
	participantID := strings.TrimSpace(req.ParticipantId)
	if participantID == "" {
		return fmt.Errorf("participant_id is required")
	}

	if participantID == requesterID {
		return fmt.Errorf("cannot start a conversation with yourself")
	}

	return nil
}

func (v *Validator) ValidateSendMessage(req *api.SendMessageRequest) error {
	if err := CheckContent(req.Content); err != nil {
		return err
	}

	if req.ClientId != nil && len(*req.ClientId) > 64 {
		return fmt.Errorf("client_id exceeds maximum length of 64 characters")
	}

	return nil
}

func (v *Validator) ValidateUpdateConversation(req *api.UpdateConversationRequest) error {
	if len([]rune(req.LastMessage)) > MaxContentLength {
		return ErrContentTooLong
	}

	return nil
}

func (v *Validator) ValidateCreateNotification(req *api.CreateNotificationRequest) error {
	if strings.TrimSpace(req.UserId) == "" {
		return fmt.Errorf("user_id is required")
	}

	switch string(req.Type) {
	case model.NotificationMessage, model.NotificationApplication:
	default:
		return fmt.Errorf("notification type '%s' is not supported", req.Type)
	}

	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	return nil
}
