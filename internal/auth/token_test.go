package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()

	manager, err := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return manager
}

func TestNewTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty secrets", func(t *testing.T) {
		_, err := NewTokenManager("", "refresh", time.Minute, time.Hour)
		require.Error(t, err)
		_, err = NewTokenManager("access", "  ", time.Minute, time.Hour)
		require.Error(t, err)
	})

	t.Run("rejects identical secrets", func(t *testing.T) {
		_, err := NewTokenManager("same", "same", time.Minute, time.Hour)
		require.Error(t, err)
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)

	token, err := manager.IssueAccess(42, "a@x.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.False(t, claims.ExpiresAt.Time.Before(time.Now()))
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)

	token, err := manager.IssueRefresh(42, 1)
	require.NoError(t, err)

	claims, err := manager.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, 1, claims.TokenVersion)
}

func TestExpiredTokenIsDistinguishedFromMalformed(t *testing.T) {
	t.Parallel()

	expired, err := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	require.NoError(t, err)

	accessToken, err := expired.IssueAccess(7, "u@x.com", "user")
	require.NoError(t, err)
	_, err = expired.VerifyAccess(accessToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	refreshToken, err := expired.IssueRefresh(7, 1)
	require.NoError(t, err)
	_, err = expired.VerifyRefresh(refreshToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	manager := newTestManager(t)
	_, err = manager.VerifyAccess("definitely.not.a-token")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCrossSecretVerificationFails(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)

	accessToken, err := manager.IssueAccess(1, "a@x.com", "user")
	require.NoError(t, err)
	refreshToken, err := manager.IssueRefresh(1, 1)
	require.NoError(t, err)

	// An access token must never verify as a refresh token or vice versa.
	_, err = manager.VerifyRefresh(accessToken)
	require.ErrorIs(t, err, ErrTokenMalformed)
	_, err = manager.VerifyAccess(refreshToken)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTamperedTokenFailsMalformed(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t)
	other, err := NewTokenManager("other-access", "other-refresh", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	forged, err := other.IssueAccess(1, "a@x.com", "admin")
	require.NoError(t, err)

	_, err = manager.VerifyAccess(forged)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"valid header", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"empty header", "", "", false},
		{"prefix only", "Bearer ", "", false},
		{"lowercase prefix", "bearer abc", "", false},
		{"missing space", "Bearerabc", "", false},
		{"different scheme", "Basic abc", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, ok := ExtractBearer(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}
