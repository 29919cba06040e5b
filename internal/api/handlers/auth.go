package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/transdesk/backend/internal/api/middleware"
	"github.com/transdesk/backend/internal/auth"
	"github.com/transdesk/backend/internal/db"
)

const minPasswordLength = 6

type AuthHandler struct {
	db           *db.Database
	jwt          *auth.JWTService
	secureCookie bool
}

func NewAuthHandler(db *db.Database, jwt *auth.JWTService, secureCookie bool) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt, secureCookie: secureCookie}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.CheckPassword(req.Password, user.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		jsonError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	expires := time.Now().Add(h.jwt.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      userResponse{ID: user.ID, Username: user.Username},
	}, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "registration failed", http.StatusInternalServerError)
		return
	}
	id, err := h.db.CreateUser(req.Username, hash)
	if errors.Is(err, db.ErrConflict) {
		jsonError(w, "username already exists", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("[auth] register %s: %v", req.Username, err)
		jsonError(w, "registration failed", http.StatusInternalServerError)
		return
	}
	log.Printf("[auth] user %s registered", req.Username)
	jsonResponse(w, userResponse{ID: id, Username: req.Username}, http.StatusCreated)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, userResponse{ID: user.ID, Username: user.Username}, http.StatusOK)
}

type passwordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword updates the password of the logged-in user.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Username = claims.Username
	h.resetPassword(w, req)
}

// ForgotPassword is the logged-out variant: the caller names the user and
// proves the old password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.resetPassword(w, req)
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, req passwordRequest) {
	if req.Username == "" || req.OldPassword == "" || req.NewPassword == "" {
		jsonError(w, "username, old_password and new_password are required", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		jsonError(w, "new password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	if !auth.CheckPassword(req.OldPassword, user.Password) {
		jsonError(w, "old password is incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		jsonError(w, "failed to update password", http.StatusInternalServerError)
		return
	}
	if err := h.db.UpdateUserPassword(user.ID, hash); err != nil {
		jsonError(w, "failed to update password", http.StatusInternalServerError)
		return
	}
	log.Printf("[auth] password changed for %s", user.Username)
	jsonResponse(w, map[string]string{"message": "password updated"}, http.StatusOK)
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
