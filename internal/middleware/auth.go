package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agendafacil/booking-api/internal/policy"
	"github.com/agendafacil/booking-api/internal/repository"
	"github.com/agendafacil/booking-api/pkg/auth"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/httputil"
)

type AuthMiddleware struct {
	tokens auth.JWTService
	users  repository.UserRepository
}

func NewAuthMiddleware(tokens auth.JWTService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Authenticate validates the bearer token and attaches the actor to
// the request context. The user record is re-read on every request so
// the admin flag is taken from storage, never from token claims.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperr.NotAuthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperr.NotAuthorized("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateAccessToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperr.NotAuthorized("invalid token"))
			c.Abort()
			return
		}

		user, err := m.users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			httputil.RespondWithError(c, apperr.NotAuthorized("account no longer exists"))
			c.Abort()
			return
		}

		actor := &policy.Actor{
			UserID:  user.ID,
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		}
		c.Request = c.Request.WithContext(policy.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireAdmin rejects non-admin sessions early. Services still run
// their own policy checks; this just keeps admin route groups tidy.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := policy.AdminOnly(c.Request.Context()); err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
