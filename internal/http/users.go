package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Dmambo/edutrack/internal/auth"
	"github.com/Dmambo/edutrack/internal/crypto"
	"github.com/Dmambo/edutrack/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	// Unknown email, inactive account and wrong password all yield the same
	// response so callers cannot probe which accounts exist.
	user, err := s.store.GetActiveUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: token, User: user})
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password_too_short")
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	taken, err := s.store.EmailTaken(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "email_taken")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    &req.FirstName,
		LastName:     &req.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusBadRequest, "user_create_failed")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: token, User: user})
}

// handleLogout records the token id in redis until the token's natural
// expiry. Without redis the token simply remains valid until it expires and
// the client is expected to discard it.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if s.redis != nil && caller.claims.ExpiresAt != nil {
		ttl := time.Until(caller.claims.ExpiresAt.Time)
		if ttl > 0 {
			_ = s.redis.Set(r.Context(), revokedTokenKey(caller.claims.ID), "1", ttl).Err()
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.User{"user": caller.user})
}

type createUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      string  `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password_too_short")
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	taken, err := s.store.EmailTaken(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "email_taken")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    trimmed(req.FirstName),
		LastName:     trimmed(req.LastName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusBadRequest, "user_create_failed")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListActiveUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
