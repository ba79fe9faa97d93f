// Package chat owns the chat and message features: document models, the
// Mongo-backed store, and the HTTP handlers mounted under /api/chat and
// /api/message.
package chat

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-chat-backend/internal/user"
)

// Chat is the stored document form: participants and references by id.
type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	ChatName      string               `bson:"chatName"`
	IsGroupChat   bool                 `bson:"isGroupChat"`
	Users         []primitive.ObjectID `bson:"users"`
	LatestMessage primitive.ObjectID   `bson:"latestMessage,omitempty"`
	GroupAdmin    primitive.ObjectID   `bson:"groupAdmin,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

// Message is the stored document form.
type Message struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Sender    primitive.ObjectID   `bson:"sender"`
	Content   string               `bson:"content"`
	Chat      primitive.ObjectID   `bson:"chat"`
	ReadBy    []primitive.ObjectID `bson:"readBy"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

// ChatView is the API shape: referenced documents resolved. It is also what
// clients feed back into the realtime channel, so the field names match the
// wire contract (chat.users, sender._id).
type ChatView struct {
	ID            primitive.ObjectID `json:"_id"`
	ChatName      string             `json:"chatName"`
	IsGroupChat   bool               `json:"isGroupChat"`
	Users         []user.User        `json:"users"`
	GroupAdmin    *user.User         `json:"groupAdmin,omitempty"`
	LatestMessage *MessageView       `json:"latestMessage,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// MessageView is a message with its sender (and optionally its chat)
// resolved.
type MessageView struct {
	ID        primitive.ObjectID   `json:"_id"`
	Sender    user.User            `json:"sender"`
	Content   string               `json:"content"`
	Chat      *ChatView            `json:"chat,omitempty"`
	ReadBy    []primitive.ObjectID `json:"readBy"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type accessChatRequest struct {
	UserID string `json:"userId"`
}

type groupChatRequest struct {
	Name string `json:"name"`
	// Users arrives either as a JSON array of user ids or, from the
	// original web client, as a JSON-encoded string containing one.
	Users flexibleIDList `json:"users"`
}

type renameRequest struct {
	ChatID   string `json:"chatId"`
	ChatName string `json:"chatName"`
}

type memberRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
	ChatID  string `json:"chatId"`
}
