package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Store is what the service needs from the persistence layer.
type Store interface {
	Create(ctx context.Context, u *User) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	Search(ctx context.Context, query string, exclude primitive.ObjectID) ([]User, error)
}

type Service struct {
	store     Store
	jwtSecret string
}

type Claims struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func NewService(store Store, secret string) *Service {
	return &Service{store: store, jwtSecret: secret}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, errors.New("please enter all the fields")
	}

	if _, err := s.store.ByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	pic := req.Pic
	if pic == "" {
		pic = defaultPic
	}

	u, err := s.store.Create(ctx, &User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Pic:      pic,
	})
	if err != nil {
		return nil, err
	}

	return s.authResponse(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.store.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(u)
}

func (s *Service) authResponse(u *User) (*AuthResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   u.ID.Hex(),
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "go-chat-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Pic:   u.Pic,
		Token: ss,
	}, nil
}

// ValidateToken parses a signed token and returns the user id and name it
// carries. Satisfies middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (string, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	return claims.ID, claims.Name, nil
}

func (s *Service) Search(ctx context.Context, query string, callerID string) ([]User, error) {
	exclude, err := primitive.ObjectIDFromHex(callerID)
	if err != nil {
		return nil, err
	}
	return s.store.Search(ctx, query, exclude)
}
