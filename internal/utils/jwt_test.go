package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret-key"

func TestTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()

	pair, err := GenerateTokenPair(userID, "user", "+919876543210", testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(JWTAccessTokenTTL.Seconds()), pair.ExpiresIn)

	claims, err := ValidateToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "+919876543210", claims.Phone)
	assert.Equal(t, AppName, claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	pair, err := GenerateTokenPair(primitive.NewObjectID(), "user", "+919876543210", testSecret)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "a-different-secret")
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	pair, err := GenerateTokenPair(userID, "partner", "+919876543210", testSecret)
	require.NoError(t, err)

	fresh, err := RefreshAccessToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(fresh.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, "partner", claims.Role)
}
