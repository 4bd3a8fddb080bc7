package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookpasal/bookpasal-backend/internal/api/httpx"
	"github.com/bookpasal/bookpasal-backend/internal/auth"
)

type ctxKey string

const (
	ctxUserIDKey ctxKey = "uid"
	ctxRoleKey   ctxKey = "role"
)

// UserID returns the authenticated user id carried by the request
// context, if any. This is the session accessor the payment callback
// relies on.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(string)
	return v, ok
}

func Role(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxRoleKey).(string)
	return v, ok
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Require rejects requests without a valid access token.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.bearerClaims(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid access token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// Optional resolves the session when a token is present and passes the
// request through untouched otherwise. The gateway callback route uses
// this: PENDING/CANCELED acks need no session, while the COMPLETE
// branch enforces one inside the service.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := m.bearerClaims(r); ok {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) bearerClaims(r *http.Request) (*auth.Claims, bool) {
	ah := r.Header.Get("Authorization")
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return nil, false
	}
	token := strings.TrimSpace(ah[len("Bearer "):])
	claims, err := m.TM.ParseAccess(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, c *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxUserIDKey, c.UserID)
	return context.WithValue(ctx, ctxRoleKey, c.Role)
}

// RequireRole allows only the given role; mount after Require.
func RequireRole(need string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := Role(r.Context())
			if !ok || role != need {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
