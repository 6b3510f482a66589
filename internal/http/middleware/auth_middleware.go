package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Elmeric/cycliti/internal/domain"
	"github.com/Elmeric/cycliti/internal/http/response"
	"github.com/Elmeric/cycliti/internal/observability"
	"github.com/Elmeric/cycliti/internal/service"
)

type contextKey string

const (
	UserContextKey contextKey = "current_user"
)

// CurrentUserResolver turns a bearer token into the active user it names.
type CurrentUserResolver interface {
	ParseSubject(token string) (string, error)
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
}

func AuthMiddleware(resolver CurrentUserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				w.Header().Set("WWW-Authenticate", "Bearer")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
				return
			}
			subject, err := resolver.ParseSubject(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid")
				w.Header().Set("WWW-Authenticate", "Bearer")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", nil)
				return
			}
			user, err := resolver.CurrentUser(r.Context(), subject)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrUserNotFound):
				observability.RecordAccessTokenValidation(r.Context(), "unknown_subject")
				response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			case errors.Is(err, service.ErrInactiveUser):
				observability.RecordAccessTokenValidation(r.Context(), "inactive")
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Inactive user", nil)
				return
			default:
				observability.RecordAccessTokenValidation(r.Context(), "error")
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "An error occur, please retry.", nil)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "ok")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireSuperuser must run after AuthMiddleware.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
			return
		}
		if !user.IsSuperuser {
			observability.Audit(r, "authz.superuser.denied", "user_id", user.ID)
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "The user doesn't have enough privileges", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*domain.User)
	return u, ok && u != nil
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
