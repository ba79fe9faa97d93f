package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-chat-backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Register handles POST /api/user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return middleware.Errorf(http.StatusBadRequest, "User already exists")
		}
		return middleware.Errorf(http.StatusBadRequest, err.Error())
	}

	middleware.RespondJSON(w, http.StatusCreated, res)
	return nil
}

// Login handles POST /api/user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return middleware.Errorf(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return middleware.Errorf(http.StatusUnauthorized, "Invalid Email or Password")
		}
		return err
	}

	middleware.RespondJSON(w, http.StatusOK, res)
	return nil
}

// Search handles GET /api/user?search=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) error {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		return middleware.Errorf(http.StatusUnauthorized, "Not authorized")
	}

	users, err := h.service.Search(r.Context(), r.URL.Query().Get("search"), callerID)
	if err != nil {
		return err
	}
	if users == nil {
		users = []User{}
	}

	middleware.RespondJSON(w, http.StatusOK, users)
	return nil
}
