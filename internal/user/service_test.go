package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	users map[string]*User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*User)}
}

func (m *memStore) Create(_ context.Context, u *User) (*User, error) {
	u.ID = primitive.NewObjectID()
	m.users[u.Email] = u
	return u, nil
}

func (m *memStore) ByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *memStore) ByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Search(_ context.Context, query string, exclude primitive.ObjectID) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.ID != exclude {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "secret")

	res, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Piyush",
		Email:    "piyush@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, "Piyush", res.Name)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.Pic, "default pic should be set")

	stored := store.users["piyush@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter2")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore(), "secret")

	req := &RegisterRequest{Name: "A", Email: "a@example.com", Password: "pw"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService(newMemStore(), "secret")

	_, err := svc.Register(context.Background(), &RegisterRequest{Email: "a@example.com"})
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMemStore(), "secret")

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "right",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(newMemStore(), "secret")

	res, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Jess", Email: "jess@example.com", Password: "pw",
	})
	require.NoError(t, err)

	id, name, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.ID.Hex(), id)
	assert.Equal(t, "Jess", name)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewService(newMemStore(), "secret")
	res, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "Jess", Email: "jess@example.com", Password: "pw",
	})
	require.NoError(t, err)

	other := NewService(newMemStore(), "different")
	_, _, err = other.ValidateToken(res.Token)
	assert.Error(t, err)
}
