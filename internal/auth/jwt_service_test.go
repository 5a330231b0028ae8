package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)

	token, err := svc.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IsAccess())
	assert.False(t, claims.IsRefresh())
	assert.InDelta(t, time.Hour.Seconds(), Remaining(claims).Seconds(), 5)
}

func TestJWTService_RefreshTokenCarriesReturnedID(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 24*time.Hour)

	tokenID, token, err := svc.GenerateRefreshToken("user-1", "a@x.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
	assert.True(t, claims.IsRefresh())
	assert.False(t, claims.IsAccess())
	assert.Equal(t, 24*time.Hour, svc.RefreshTTL())
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	other := NewJWTService("other-secret", time.Hour, time.Hour)
	expired := NewJWTService("test-secret", -time.Minute, time.Hour)

	foreign, err := other.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)
	stale, err := expired.GenerateAccessToken("user-1", "a@x.com")
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", foreign},
		{"expired", stale},
		{"alg none", noneAlg},
		{"missing claims", anonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestRemaining_ClampsAtZero(t *testing.T) {
	assert.Zero(t, Remaining(nil))
	assert.Zero(t, Remaining(&Claims{}))
	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}}
	assert.Zero(t, Remaining(past))
}
