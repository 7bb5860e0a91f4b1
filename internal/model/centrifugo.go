package model

import "github.com/golang-jwt/jwt/v5"

type CentrifugoEvent struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type CentrifugoEventParams struct {
	Channel string      `json:"channel"`
	Data    ChangeEvent `json:"data"`
}

type CentrifugoConnectClaims struct {
	jwt.RegisteredClaims

	// personal channels the connection is subscribed to server-side
	Channels []string `json:"channels,omitempty"`
}

type CentrifugoSubscribeClaims struct {
	jwt.RegisteredClaims

	Channel string `json:"channel"`
	Client  string `json:"client,omitempty"`

	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

func UserChannel(userID string) string {
	return "user:" + userID
}

func ConversationChannel(conversationID string) string {
	return "conversation:" + conversationID
}
