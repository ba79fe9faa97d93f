package chat

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-chat-backend/internal/user"
)

var ErrChatNotFound = errors.New("chat not found")

// Repository is the Mongo-backed store for chats and messages. Population of
// referenced users and messages is done with follow-up queries against the
// users and messages collections.
type Repository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
	users    *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		chats:    db.Collection("chats"),
		messages: db.Collection("messages"),
		users:    db.Collection("users"),
	}
}

// FindOneToOne returns the existing non-group chat between the two users.
func (r *Repository) FindOneToOne(ctx context.Context, a, b primitive.ObjectID) (*ChatView, error) {
	c := &Chat{}
	filter := bson.M{
		"isGroupChat": false,
		"users":       bson.M{"$all": bson.A{a, b}},
	}
	if err := r.chats.FindOne(ctx, filter).Decode(c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return r.chatView(ctx, c)
}

func (r *Repository) CreateChat(ctx context.Context, c *Chat) (*ChatView, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	res, err := r.chats.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return r.chatView(ctx, c)
}

// ChatsForUser lists every chat the user participates in, most recently
// updated first.
func (r *Repository) ChatsForUser(ctx context.Context, uid primitive.ObjectID) ([]ChatView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cur, err := r.chats.Find(ctx, bson.M{"users": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chats []Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(chats))
	for i := range chats {
		v, err := r.chatView(ctx, &chats[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (r *Repository) ChatByID(ctx context.Context, id primitive.ObjectID) (*ChatView, error) {
	c := &Chat{}
	if err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return r.chatView(ctx, c)
}

func (r *Repository) Rename(ctx context.Context, id primitive.ObjectID, name string) (*ChatView, error) {
	return r.updateChat(ctx, id, bson.M{
		"$set": bson.M{"chatName": name, "updatedAt": time.Now().UTC()},
	})
}

func (r *Repository) AddUser(ctx context.Context, id, uid primitive.ObjectID) (*ChatView, error) {
	return r.updateChat(ctx, id, bson.M{
		"$addToSet": bson.M{"users": uid},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *Repository) RemoveUser(ctx context.Context, id, uid primitive.ObjectID) (*ChatView, error) {
	return r.updateChat(ctx, id, bson.M{
		"$pull": bson.M{"users": uid},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *Repository) updateChat(ctx context.Context, id primitive.ObjectID, update bson.M) (*ChatView, error) {
	c := &Chat{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.chats.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return r.chatView(ctx, c)
}

// SaveMessage persists a message and returns it populated with its sender
// and chat (including the chat's users, which the realtime fan-out needs).
func (r *Repository) SaveMessage(ctx context.Context, m *Message) (*MessageView, error) {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.ReadBy == nil {
		m.ReadBy = []primitive.ObjectID{}
	}

	res, err := r.messages.InsertOne(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return r.messageView(ctx, m, true)
}

func (r *Repository) SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	_, err := r.chats.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{"latestMessage": messageID, "updatedAt": time.Now().UTC()},
	})
	return err
}

// MessagesForChat returns the chat's messages oldest first, senders resolved.
func (r *Repository) MessagesForChat(ctx context.Context, chatID primitive.ObjectID) ([]MessageView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.messages.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		v, err := r.messageView(ctx, &msgs[i], false)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (r *Repository) chatView(ctx context.Context, c *Chat) (*ChatView, error) {
	users, err := r.usersByIDs(ctx, c.Users)
	if err != nil {
		return nil, err
	}

	view := &ChatView{
		ID:          c.ID,
		ChatName:    c.ChatName,
		IsGroupChat: c.IsGroupChat,
		Users:       users,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	if !c.GroupAdmin.IsZero() {
		admin, err := r.userByID(ctx, c.GroupAdmin)
		if err == nil {
			view.GroupAdmin = admin
		}
	}

	if !c.LatestMessage.IsZero() {
		m := &Message{}
		if err := r.messages.FindOne(ctx, bson.M{"_id": c.LatestMessage}).Decode(m); err == nil {
			latest, err := r.messageView(ctx, m, false)
			if err != nil {
				return nil, err
			}
			view.LatestMessage = latest
		}
	}

	return view, nil
}

func (r *Repository) messageView(ctx context.Context, m *Message, withChat bool) (*MessageView, error) {
	sender, err := r.userByID(ctx, m.Sender)
	if err != nil {
		return nil, err
	}

	view := &MessageView{
		ID:        m.ID,
		Sender:    *sender,
		Content:   m.Content,
		ReadBy:    m.ReadBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if withChat {
		c := &Chat{}
		if err := r.chats.FindOne(ctx, bson.M{"_id": m.Chat}).Decode(c); err != nil {
			return nil, err
		}
		chatView, err := r.chatView(ctx, c)
		if err != nil {
			return nil, err
		}
		view.Chat = chatView
	}

	return view, nil
}

func (r *Repository) userByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	u := &user.User{}
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) usersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []user.User
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}

	// Preserve the order the chat document lists its participants in.
	byID := make(map[primitive.ObjectID]user.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	ordered := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
