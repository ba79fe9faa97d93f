package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-chat-backend/internal/middleware"
)

// fakeStore records calls and serves canned responses.
type fakeStore struct {
	oneToOne     *ChatView
	oneToOneErr  error
	created      []*Chat
	savedMsgs    []*Message
	latestCalls  [][2]primitive.ObjectID
	chatsForUser []ChatView
	messages     []MessageView
}

func (f *fakeStore) FindOneToOne(_ context.Context, a, b primitive.ObjectID) (*ChatView, error) {
	if f.oneToOneErr != nil {
		return nil, f.oneToOneErr
	}
	return f.oneToOne, nil
}

func (f *fakeStore) CreateChat(_ context.Context, c *Chat) (*ChatView, error) {
	c.ID = primitive.NewObjectID()
	f.created = append(f.created, c)
	return &ChatView{ID: c.ID, ChatName: c.ChatName, IsGroupChat: c.IsGroupChat}, nil
}

func (f *fakeStore) ChatsForUser(context.Context, primitive.ObjectID) ([]ChatView, error) {
	return f.chatsForUser, nil
}

func (f *fakeStore) ChatByID(context.Context, primitive.ObjectID) (*ChatView, error) {
	return f.oneToOne, f.oneToOneErr
}

func (f *fakeStore) Rename(_ context.Context, id primitive.ObjectID, name string) (*ChatView, error) {
	return &ChatView{ID: id, ChatName: name}, nil
}

func (f *fakeStore) AddUser(_ context.Context, id, _ primitive.ObjectID) (*ChatView, error) {
	return &ChatView{ID: id}, nil
}

func (f *fakeStore) RemoveUser(_ context.Context, id, _ primitive.ObjectID) (*ChatView, error) {
	return &ChatView{ID: id}, nil
}

func (f *fakeStore) SaveMessage(_ context.Context, m *Message) (*MessageView, error) {
	m.ID = primitive.NewObjectID()
	f.savedMsgs = append(f.savedMsgs, m)
	return &MessageView{ID: m.ID, Content: m.Content}, nil
}

func (f *fakeStore) SetLatestMessage(_ context.Context, chatID, messageID primitive.ObjectID) error {
	f.latestCalls = append(f.latestCalls, [2]primitive.ObjectID{chatID, messageID})
	return nil
}

func (f *fakeStore) MessagesForChat(context.Context, primitive.ObjectID) ([]MessageView, error) {
	return f.messages, nil
}

func newTestRouter(store Store) chi.Router {
	h := NewHandler(store)
	r := chi.NewRouter()
	r.Post("/api/chat", middleware.Wrap(h.AccessChat))
	r.Get("/api/chat", middleware.Wrap(h.FetchChats))
	r.Post("/api/chat/group", middleware.Wrap(h.CreateGroup))
	r.Put("/api/chat/rename", middleware.Wrap(h.RenameGroup))
	r.Post("/api/message", middleware.Wrap(h.SendMessage))
	r.Get("/api/message/{chatId}", middleware.Wrap(h.ListMessages))
	return r
}

func authedRequest(method, target string, body any, caller primitive.ObjectID) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, caller.Hex())
	return req.WithContext(ctx)
}

func TestAccessChatMissingUserID(t *testing.T) {
	r := newTestRouter(&fakeStore{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/chat", map[string]string{}, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UserId param not sent with request")
}

func TestAccessChatReusesExisting(t *testing.T) {
	existing := &ChatView{ID: primitive.NewObjectID(), ChatName: "sender"}
	store := &fakeStore{oneToOne: existing}
	r := newTestRouter(store)

	rec := httptest.NewRecorder()
	body := map[string]string{"userId": primitive.NewObjectID().Hex()}
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/chat", body, primitive.NewObjectID()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.created, "must not create a second 1:1 chat")

	var got ChatView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, existing.ID, got.ID)
}

func TestAccessChatCreatesOnFirstContact(t *testing.T) {
	store := &fakeStore{oneToOneErr: ErrChatNotFound}
	r := newTestRouter(store)

	caller := primitive.NewObjectID()
	target := primitive.NewObjectID()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/chat", map[string]string{"userId": target.Hex()}, caller))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.created, 1)
	assert.False(t, store.created[0].IsGroupChat)
	assert.ElementsMatch(t, []primitive.ObjectID{caller, target}, store.created[0].Users)
}

func TestCreateGroupRequiresThreeMembers(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	body := map[string]any{"name": "Friends", "users": []string{primitive.NewObjectID().Hex()}}
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/chat/group", body, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "More than 2 users")
}

func TestCreateGroupAppendsCallerAsAdmin(t *testing.T) {
	store := &fakeStore{}
	r := newTestRouter(store)

	caller := primitive.NewObjectID()
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()

	// The original web client double-encodes the users array.
	usersJSON, _ := json.Marshal([]string{u1.Hex(), u2.Hex()})
	body := map[string]any{"name": "Friends", "users": string(usersJSON)}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/chat/group", body, caller))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.True(t, created.IsGroupChat)
	assert.Equal(t, caller, created.GroupAdmin)
	assert.ElementsMatch(t, []primitive.ObjectID{u1, u2, caller}, created.Users)
}

func TestSendMessageValidation(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/message", map[string]string{"content": "hi"}, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid data passed into request")
}

func TestSendMessageSetsLatest(t *testing.T) {
	store := &fakeStore{}
	r := newTestRouter(store)

	caller := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	body := map[string]string{"content": "hi there", "chatId": chatID.Hex()}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/message", body, caller))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.savedMsgs, 1)
	assert.Equal(t, caller, store.savedMsgs[0].Sender)
	assert.Equal(t, chatID, store.savedMsgs[0].Chat)

	require.Len(t, store.latestCalls, 1)
	assert.Equal(t, chatID, store.latestCalls[0][0])
	assert.Equal(t, store.savedMsgs[0].ID, store.latestCalls[0][1])
}

func TestListMessagesInvalidChatID(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/message/not-an-id", nil, primitive.NewObjectID()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFetchChatsEmpty(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/chat", nil, primitive.NewObjectID()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
