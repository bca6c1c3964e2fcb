package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"vizboard/internal/auth"
	"vizboard/internal/store"
	"vizboard/internal/token"
)

const bcryptCost = 10

type AuthHandler struct {
	userStore *store.UserStore
	tokens    *token.Manager
	logger    *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tm *token.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore: us,
		tokens:    tm,
		logger:    logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    userPayload `json:"user"`
	Token   string      `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.userStore.Create(req.Name, req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	signed, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
		Token:   signed,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userStore.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	signed, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
		Token:   signed,
	})
}

// Me returns the authenticated user. Requires the bearer token middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userStore.GetByID(userID)
	if err != nil {
		h.logger.Error("me lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
