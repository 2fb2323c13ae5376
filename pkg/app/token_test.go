package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "user-secret", Expiry: time.Hour, Issuer: "test-issuer"})

	token, err := tm.Generate("7f1c7a9e-uid", "alice", "127.0.0.1")
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "7f1c7a9e-uid", claims.UID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "user-secret"})
	token, err := tm.Generate("u", "alice", "")
	require.NoError(t, err)

	assert.Error(t, NewTokenManager(TokenConfig{SecretKey: "wrong-secret"}).Validate(token), "wrong secret")
	assert.Error(t, NewTokenManager(TokenConfig{SecretKey: "user-secret", Issuer: "other"}).Validate(token), "wrong issuer")
	assert.Error(t, tm.Validate("not-a-token"))

	expired := NewTokenManager(TokenConfig{SecretKey: "k", Expiry: -time.Minute})
	token, err = expired.Generate("u", "bob", "")
	require.NoError(t, err)
	assert.Error(t, expired.Validate(token))
}

func TestNewTokenManager_Defaults(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "k"}).(*tokenManager)
	assert.Equal(t, 7*24*time.Hour, tm.config.Expiry)
	assert.Equal(t, DefaultTokenIssuer, tm.config.Issuer)
}
