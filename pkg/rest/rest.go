// Package rest glues servicekit into gin hosts: it renders catalogued
// service errors with their HTTP status and provides a bearer-token auth
// middleware that makes the signed-in identity.User available to
// handlers. servicekit defines no routes of its own.
package rest

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/serioese/servicekit/pkg/auth"
	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/identity"
)

const (
	// ContextKeyUser is the gin context key the middleware stores the
	// signed-in user under
	ContextKeyUser = "servicekit.user"

	headerAuthorization = "Authorization"
)

// RespondError writes err as a JSON error response with the HTTP status
// derived from the servicekit error taxonomy.
func RespondError(c *gin.Context, err error) {
	c.JSON(errors.GetHTTPStatus(err), errors.ToResponse(err))
}

// AbortWithError is RespondError plus aborting the handler chain, for use
// in middleware.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.GetHTTPStatus(err), errors.ToResponse(err))
}

// TokenValidator turns a bearer token into the signed-in user. Hosts with
// server-side sessions can check revocation here before returning.
type TokenValidator func(ctx context.Context, token string) (*identity.User, error)

// JWTValidator validates stateless JWT tokens issued by the auth package
func JWTValidator() TokenValidator {
	return func(ctx context.Context, token string) (*identity.User, error) {
		claims, err := auth.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &claims.User, nil
	}
}

// RequireAuth is a middleware that validates bearer tokens and stores the
// resulting user in the gin context. Requests without a valid token are
// rejected with 401.
func RequireAuth(validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(headerAuthorization)
		if authHeader == "" {
			AbortWithError(c, errors.NewUnauthorizedError("no authorization token provided"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, errors.NewUnauthorizedError("invalid authorization header format"))
			return
		}

		user, err := validate(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, errors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// CurrentUser returns the signed-in user set by RequireAuth, or nil when
// the request is unauthenticated. A nil user fails the service guards, so
// handlers can pass it straight through.
func CurrentUser(c *gin.Context) *identity.User {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := value.(*identity.User)
	if !ok {
		return nil
	}
	return user
}
