package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serioese/servicekit/pkg/errors"
	"github.com/serioese/servicekit/pkg/identity"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("Sup3rSecret"))
	assert.Error(t, ValidatePasswordStrength("short"))
	assert.Error(t, ValidatePasswordStrength("alllowercase1"))
	assert.Error(t, ValidatePasswordStrength("ALLUPPERCASE1"))
	assert.Error(t, ValidatePasswordStrength("NoDigitsHere"))
}

func TestTokenRoundtrip(t *testing.T) {
	user := identity.User{ID: "u1", Name: "Ada", Email: "ada@example.com", ProfileID: "standard"}

	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.User)
	assert.Equal(t, "u1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestDecodeToken(t *testing.T) {
	user := identity.User{ID: "u1", ProfileID: "standard"}
	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.User.ID)
}
