// Package auth is a reference identity provider for servicekit: bcrypt
// password handling plus stateless JWT sessions that carry an
// identity.User. Hosts with their own identity stack can ignore this
// package entirely; the service guards only depend on identity.User.
package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/identity"
)

// Claims represents JWT claims carrying the signed-in user
type Claims struct {
	User identity.User `json:"user"`
	jwt.RegisteredClaims
}

// TokenLifetime is how long issued tokens stay valid
const TokenLifetime = 24 * time.Hour

var jwtSecret = []byte(getJWTSecret())

func getJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default-secret-change-in-production"
	}
	return secret
}

// GenerateToken creates a JWT token for a signed-in user
func GenerateToken(user identity.User) (string, error) {
	expirationTime := time.Now().Add(TokenLifetime)

	claims := &Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates and parses a JWT token. Failures come back as
// UnauthorizedError.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewUnauthorizedError("invalid signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, errors.NewUnauthorizedError(err.Error())
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.NewUnauthorizedError("invalid token")
}

// DecodeToken decodes a token without validation (for extracting the JTI)
func DecodeToken(tokenString string) (*Claims, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok {
		return claims, nil
	}
	return nil, errors.NewUnauthorizedError("invalid token claims")
}
