package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/vita/internal/actorctx"
	"github.com/geocoder89/vita/internal/auth"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt  TokenVerifier
	prom *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, prom: prom}
}

// One message for every rejection: callers cannot tell a missing token from an
// expired or forged one.
const unauthorizedMessage = "Authentication required"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.prom.AuthFailure("missing_token")
			abortError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			m.prom.AuthFailure("missing_token")
			abortError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			m.prom.AuthFailure("invalid_token")
			abortError(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
			UserID: claims.UserID,
			Email:  claims.Email,
		}))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func EmailFromContext(c *gin.Context) (string, bool) {
	email := c.GetString(CtxEmail)
	return email, email != ""
}
