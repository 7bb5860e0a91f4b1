package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/talentmatch/messaging-service/internal/config"
	api "github.com/talentmatch/messaging-service/internal/generated"
	"github.com/talentmatch/messaging-service/internal/model"
	"github.com/talentmatch/messaging-service/internal/pkg/tx"
)

var (
	errConversationNotFound = errors.New("conversation not found")
	errNotParticipant       = errors.New("user is not a participant of the conversation")
)

type Handler struct {
	repository   DBRepo
	validator    Validator
	jwtGenerator JWTGenerator
	now          func() time.Time
}

func New(repo DBRepo, validator Validator, jwtGenerator JWTGenerator) *Handler {
	return &Handler{
		repository:   repo,
		validator:    validator,
		jwtGenerator: jwtGenerator,
		now:          time.Now,
	}
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversations")

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	conversations, err := h.repository.GetConversations(r.Context(), requesterID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to get conversations: %v", err))
		h.writeError(w, fmt.Sprintf("failed to get conversations: %v", err), http.StatusInternalServerError)
		return
	}

	companionIDs := make([]string, 0, len(conversations))
	for _, c := range conversations {
		companionIDs = append(companionIDs, c.CompanionID(requesterID))
	}

	profiles := map[string]model.Profile{}
	if len(companionIDs) > 0 {
		profiles, err = h.repository.GetProfiles(r.Context(), companionIDs)
		if err != nil {
			logger.Warn(fmt.Sprintf("failed to get companion profiles: %v", err))
		}
	}

	previews := make([]api.ConversationPreview, len(conversations))
	for i, c := range conversations {
		companionID := c.CompanionID(requesterID)
		profile, ok := profiles[companionID]
		if !ok {
			profile = model.Profile{ID: companionID}
		}

		var avatarURL *string
		if profile.AvatarURL != "" {
			avatarURL = &profile.AvatarURL
		}

		previews[i] = api.ConversationPreview{
			Id:          c.ID,
			LastMessage: c.LastMessage,
			UpdatedAt:   c.UpdatedAt,
			UnreadCount: c.UnreadCount,
			Companion: api.Companion{
				Id:        companionID,
				Nickname:  profile.DisplayName(),
				AvatarUrl: avatarURL,
			},
		}
	}

	response := api.GetConversationsResponse{
		Conversations: previews,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("CreateConversation")

	var req api.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateCreateConversation(&req, requesterID); err != nil {
		logger.Error(fmt.Sprintf("conversation validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("conversation validation failed: %v", err), http.StatusBadRequest)
		return
	}

	// the lookup-insert race is resolved by the repository, outside of a transaction
	conversation, created, err := h.repository.FindOrCreateConversation(r.Context(), requesterID, strings.TrimSpace(req.ParticipantId))
	if err != nil {
		logger.Error(fmt.Sprintf("failed to find or create conversation: %v", err))
		h.writeError(w, fmt.Sprintf("failed to create conversation: %v", err), http.StatusInternalServerError)
		return
	}

	if created {
		logger.Info(fmt.Sprintf("created conversation %s", conversation.ID))
	}

	response := api.CreateConversationResponse{
		Id:      conversation.ID,
		Created: created,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("UpdateConversation")

	var req api.UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateUpdateConversation(&req); err != nil {
		logger.Error(fmt.Sprintf("conversation validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("conversation validation failed: %v", err), http.StatusBadRequest)
		return
	}

	err := tx.TxExecute(r.Context(), func(ctx context.Context) error {
		if _, err := h.participantConversation(ctx, conversationId, requesterID); err != nil {
			return err
		}

		if err := h.repository.UpdateConversationSummary(ctx, conversationId, req.LastMessage, h.now()); err != nil {
			return fmt.Errorf("failed to update conversation: %v", err)
		}

		return nil
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to update conversation %s: %v", conversationId, err))
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetConversationMessages(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversationMessages")

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	if _, err := h.participantConversation(r.Context(), conversationId, requesterID); err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation %s: %v", conversationId, err))
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	messages, err := h.repository.GetMessages(r.Context(), conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to get messages: %v", err))
		h.writeError(w, fmt.Sprintf("failed to get messages: %v", err), http.StatusInternalServerError)
		return
	}

	items := make([]api.Message, len(messages))
	for i, m := range messages {
		items[i] = toAPIMessage(m)
	}

	response := api.GetConversationMessagesResponse{
		Messages: items,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SendMessage")

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender id")
		h.writeError(w, "failed to get sender id", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		logger.Error(fmt.Sprintf("message validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("message validation failed: %v", err), http.StatusBadRequest)
		return
	}

	var saved *model.Message
	err := tx.TxExecute(r.Context(), func(ctx context.Context) error {
		conversation, err := h.participantConversation(ctx, conversationId, senderID)
		if err != nil {
			return err
		}

		message := &model.Message{
			ConversationID: conversationId,
			SenderID:       senderID,
			ReceiverID:     conversation.CompanionID(senderID),
			Content:        strings.TrimSpace(req.Content),
		}
		if req.ClientId != nil {
			message.ClientID = *req.ClientId
		}

		saved, err = h.repository.SaveMessage(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to save message: %v", err)
		}

		return nil
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to send message transaction: %v", err))
		h.writeError(w, fmt.Sprintf("failed to send message: %v", err), statusFor(err))
		return
	}

	h.writeJSON(w, toAPIMessage(*saved), http.StatusOK)
}

func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("MarkConversationRead")

	requesterID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get requester id")
		h.writeError(w, "failed to get requester id", http.StatusInternalServerError)
		return
	}

	var updated int64
	err := tx.TxExecute(r.Context(), func(ctx context.Context) error {
		if _, err := h.participantConversation(ctx, conversationId, requesterID); err != nil {
			return err
		}

		var err error
		updated, err = h.repository.MarkConversationRead(ctx, conversationId, requesterID)
		if err != nil {
			return fmt.Errorf("failed to mark conversation read: %v", err)
		}

		return nil
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to mark conversation %s read: %v", conversationId, err))
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	response := api.MarkConversationReadResponse{
		Updated: updated,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("CreateNotification")

	var req api.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.ValidateCreateNotification(&req); err != nil {
		logger.Error(fmt.Sprintf("notification validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("notification validation failed: %v", err), http.StatusBadRequest)
		return
	}

	notification := &model.Notification{
		UserID:  req.UserId,
		Type:    string(req.Type),
		Content: req.Content,
	}
	if req.Link != nil {
		notification.Link = *req.Link
	}

	if err := h.repository.CreateNotification(r.Context(), notification); err != nil {
		logger.Error(fmt.Sprintf("failed to create notification: %v", err))
		h.writeError(w, fmt.Sprintf("failed to create notification: %v", err), http.StatusInternalServerError)
		return
	}

	response := api.CreateNotificationResponse{
		Id: notification.ID,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConnectToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConnectToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateConnectToken(userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate connect token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate connect token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated connect token for user %s", userUUID))

	response := api.ConnectTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetSubscribeToken(w http.ResponseWriter, r *http.Request, conversationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetSubscribeToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	if _, err := h.participantConversation(r.Context(), conversationId, userUUID); err != nil {
		logger.Error(fmt.Sprintf("failed to check conversation %s: %v", conversationId, err))
		h.writeError(w, err.Error(), statusFor(err))
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateSubscribeToken(userUUID, conversationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate subscribe token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate subscribe token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated subscribe token for user %s, conversation %s", userUUID, conversationId))

	response := api.SubscribeTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Channel:   model.ConversationChannel(conversationId),
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ----------------------------- helpers -----------------------------

func (h *Handler) participantConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	conversation, err := h.repository.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}
	if conversation == nil {
		return nil, errConversationNotFound
	}
	if !conversation.HasParticipant(userID) {
		return nil, errNotParticipant
	}
	return conversation, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotParticipant):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func toAPIMessage(m model.Message) api.Message {
	out := api.Message{
		Id:             m.ID,
		ConversationId: m.ConversationID,
		SenderId:       m.SenderID,
		ReceiverId:     m.ReceiverID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		IsRead:         m.IsRead,
	}
	if m.ClientID != "" {
		clientID := m.ClientID
		out.ClientId = &clientID
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
