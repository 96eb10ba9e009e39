package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Dmambo/edutrack/internal/auth"
	"github.com/Dmambo/edutrack/internal/config"
	"github.com/Dmambo/edutrack/internal/model"
	"github.com/Dmambo/edutrack/internal/repository"
)

type Server struct {
	cfg   config.Config
	store *repository.Store
	redis *redis.Client
}

// NewServer wires the handlers. redisClient may be nil, in which case logout
// does not revoke tokens server-side.
func NewServer(cfg config.Config, store *repository.Store, redisClient *redis.Client) *Server {
	return &Server{
		cfg:   cfg,
		store: store,
		redis: redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)
	r.With(s.authMiddleware).Post("/api/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/api/users/me", s.handleGetMe)

	r.With(s.authMiddleware, s.requireAdmin).Post("/api/users", s.handleCreateUser)
	r.With(s.authMiddleware, s.requireAdmin).Get("/api/users", s.handleListUsers)

	r.With(s.authMiddleware, s.requireAdmin).Post("/api/classes", s.handleCreateClass)
	r.With(s.authMiddleware).Get("/api/classes", s.handleListClasses)

	r.With(s.authMiddleware, s.requireAdmin).Post("/api/enrollments", s.handleCreateEnrollment)
	r.With(s.authMiddleware).Get("/api/enrollments", s.handleListEnrollments)

	r.With(s.authMiddleware, s.requireStaff).Post("/api/attendance", s.handleCreateAttendance)
	r.With(s.authMiddleware).Get("/api/attendance", s.handleListAttendance)

	r.With(s.authMiddleware, s.requireStaff).Post("/api/performance", s.handleCreatePerformance)
	r.With(s.authMiddleware).Get("/api/performance", s.handleListPerformance)

	r.With(s.authMiddleware).Get("/api/dashboard/stats", s.handleDashboardStats)

	r.With(s.authMiddleware).Post("/api/corrections", s.handleCreateCorrection)
	r.With(s.authMiddleware).Get("/api/corrections", s.handleListCorrections)
	r.With(s.authMiddleware, s.requireAdmin).Put("/api/corrections/{requestID}", s.handleReviewCorrection)

	return r
}

// Auth

type callerKey struct{}

type requestCaller struct {
	user   model.User
	claims *auth.Claims
}

// authMiddleware verifies the bearer token, rejects revoked tokens, and
// resolves the claims to an active user record. Handlers downstream always
// see a fully resolved caller.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		if s.redis != nil && claims.ID != "" {
			revoked, err := s.redis.Exists(r.Context(), revokedTokenKey(claims.ID)).Result()
			if err == nil && revoked > 0 {
				writeError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
		}

		user, err := s.store.GetActiveUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusUnauthorized, "user_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, &requestCaller{user: user, claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFromContext(ctx context.Context) *requestCaller {
	value := ctx.Value(callerKey{})
	caller, _ := value.(*requestCaller)
	return caller
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromContext(r.Context())
		if caller == nil || !caller.user.Role.CanManageUsers() {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := callerFromContext(r.Context())
		if caller == nil || !caller.user.Role.CanRecord() {
			writeError(w, http.StatusForbidden, "staff_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func revokedTokenKey(tokenID string) string {
	return "revoked_token:" + tokenID
}

// Helpers

const dateLayout = "2006-01-02"

func validDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
