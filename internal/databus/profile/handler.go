package profile

import (
	"context"
	"encoding/json"
	"fmt"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/model"
)

type profileUpdated struct {
	UserUUID   string `json:"user_uuid"`
	Nickname   string `json:"nickname"`
	AvatarLink string `json:"avatar_link"`
}

type Handler struct {
	dbR DBRepo
}

func New(dbR DBRepo) *Handler {
	return &Handler{dbR: dbR}
}

// Handler upserts the profile carried by one kafka message. Undecodable
// messages are logged and skipped; store failures are returned so the
// message is redelivered.
func (h *Handler) Handler(ctx context.Context, in []byte) error {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("Handler")

	var msg profileUpdated
	if err := json.Unmarshal(in, &msg); err != nil {
		logger.Error(fmt.Sprintf("failed to unmarshal profile message: %v", err))
		return nil
	}

	if msg.UserUUID == "" {
		logger.Error("profile message without user_uuid")
		return nil
	}

	err := h.dbR.UpsertProfile(ctx, model.Profile{
		ID:        msg.UserUUID,
		Nickname:  msg.Nickname,
		AvatarURL: msg.AvatarLink,
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to upsert profile %s: %v", msg.UserUUID, err))
		return fmt.Errorf("failed to upsert profile: %v", err)
	}

	return nil
}
