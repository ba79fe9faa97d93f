package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-chat-backend/internal/middleware"
)

// Store is what the handlers need from the persistence layer.
type Store interface {
	FindOneToOne(ctx context.Context, a, b primitive.ObjectID) (*ChatView, error)
	CreateChat(ctx context.Context, c *Chat) (*ChatView, error)
	ChatsForUser(ctx context.Context, uid primitive.ObjectID) ([]ChatView, error)
	ChatByID(ctx context.Context, id primitive.ObjectID) (*ChatView, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (*ChatView, error)
	AddUser(ctx context.Context, id, uid primitive.ObjectID) (*ChatView, error)
	RemoveUser(ctx context.Context, id, uid primitive.ObjectID) (*ChatView, error)
	SaveMessage(ctx context.Context, m *Message) (*MessageView, error)
	SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error
	MessagesForChat(ctx context.Context, chatID primitive.ObjectID) ([]MessageView, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// AccessChat handles POST /api/chat: return the 1:1 chat with the given
// user, creating it on first contact.
func (h *Handler) AccessChat(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(r)
	if err != nil {
		return err
	}

	var req accessChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		return middleware.Errorf(http.StatusBadRequest, "UserId param not sent with request")
	}

	target, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid userId")
	}

	existing, err := h.store.FindOneToOne(r.Context(), caller, target)
	if err == nil {
		middleware.RespondJSON(w, http.StatusOK, existing)
		return nil
	}
	if !errors.Is(err, ErrChatNotFound) {
		return err
	}

	created, err := h.store.CreateChat(r.Context(), &Chat{
		ChatName:    "sender",
		IsGroupChat: false,
		Users:       []primitive.ObjectID{caller, target},
	})
	if err != nil {
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, created)
	return nil
}

// FetchChats handles GET /api/chat.
func (h *Handler) FetchChats(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(r)
	if err != nil {
		return err
	}

	chats, err := h.store.ChatsForUser(r.Context(), caller)
	if err != nil {
		return err
	}
	if chats == nil {
		chats = []ChatView{}
	}

	middleware.RespondJSON(w, http.StatusOK, chats)
	return nil
}

// CreateGroup handles POST /api/chat/group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(r)
	if err != nil {
		return err
	}

	var req groupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || len(req.Users) == 0 {
		return middleware.Errorf(http.StatusBadRequest, "Please Fill all the fields")
	}
	if len(req.Users) < 2 {
		return middleware.Errorf(http.StatusBadRequest, "More than 2 users are required to form a group chat")
	}

	members := make([]primitive.ObjectID, 0, len(req.Users)+1)
	for _, raw := range req.Users {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return middleware.Errorf(http.StatusBadRequest, "invalid userId in users")
		}
		members = append(members, id)
	}
	members = append(members, caller)

	created, err := h.store.CreateChat(r.Context(), &Chat{
		ChatName:    req.Name,
		IsGroupChat: true,
		Users:       members,
		GroupAdmin:  caller,
	})
	if err != nil {
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, created)
	return nil
}

// RenameGroup handles PUT /api/chat/rename.
func (h *Handler) RenameGroup(w http.ResponseWriter, r *http.Request) error {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" || req.ChatName == "" {
		return middleware.Errorf(http.StatusBadRequest, "invalid request body")
	}

	id, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid chatId")
	}

	updated, err := h.store.Rename(r.Context(), id, req.ChatName)
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return middleware.Errorf(http.StatusNotFound, "Chat Not Found")
		}
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, updated)
	return nil
}

// AddToGroup handles PUT /api/chat/groupadd.
func (h *Handler) AddToGroup(w http.ResponseWriter, r *http.Request) error {
	return h.updateMembership(w, r, h.store.AddUser)
}

// RemoveFromGroup handles PUT /api/chat/groupremove.
func (h *Handler) RemoveFromGroup(w http.ResponseWriter, r *http.Request) error {
	return h.updateMembership(w, r, h.store.RemoveUser)
}

func (h *Handler) updateMembership(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID, primitive.ObjectID) (*ChatView, error)) error {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" || req.UserID == "" {
		return middleware.Errorf(http.StatusBadRequest, "invalid request body")
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid chatId")
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid userId")
	}

	updated, err := op(r.Context(), chatID, userID)
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return middleware.Errorf(http.StatusNotFound, "Chat Not Found")
		}
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, updated)
	return nil
}

// SendMessage handles POST /api/message: persist the message and bump the
// chat's latestMessage. The response carries the populated message (sender
// and chat with its users) so the client can emit it on the realtime channel.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerID(r)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" || req.ChatID == "" {
		return middleware.Errorf(http.StatusBadRequest, "Invalid data passed into request")
	}

	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid chatId")
	}

	saved, err := h.store.SaveMessage(r.Context(), &Message{
		Sender:  caller,
		Content: req.Content,
		Chat:    chatID,
	})
	if err != nil {
		return err
	}

	if err := h.store.SetLatestMessage(r.Context(), chatID, saved.ID); err != nil {
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, saved)
	return nil
}

// ListMessages handles GET /api/message/{chatId}.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) error {
	chatID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "chatId"))
	if err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid chatId")
	}

	msgs, err := h.store.MessagesForChat(r.Context(), chatID)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []MessageView{}
	}

	middleware.RespondJSON(w, http.StatusOK, msgs)
	return nil
}

func callerID(r *http.Request) (primitive.ObjectID, error) {
	raw, ok := middleware.UserID(r.Context())
	if !ok {
		return primitive.NilObjectID, middleware.Errorf(http.StatusUnauthorized, "Not authorized")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, middleware.Errorf(http.StatusUnauthorized, "Not authorized")
	}
	return id, nil
}
