package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification_service/internal/models"
)

func newTestTokenService() *TokenService {
	return NewTokenService("test-secret-key", 24*time.Hour, 7*24*time.Hour)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue(42, TokenKindAccess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, TokenKindAccess, claims.Kind)
}

func TestTokenService_IssuePair(t *testing.T) {
	svc := newTestTokenService()

	pair, err := svc.IssuePair(7)
	require.NoError(t, err)

	accessClaims, err := svc.Verify(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), accessClaims.UserID)

	refreshClaims, err := svc.Verify(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(7), refreshClaims.UserID)
}

func TestTokenService_VerifyKindMismatch(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token, TokenKindRefresh)
	assert.ErrorIs(t, err, models.ErrTokenKindMismatch)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc := NewTokenService("test-secret-key", -time.Minute, -time.Minute)

	token, err := svc.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token, TokenKindAccess)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenService_VerifyTampered(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token+"x", TokenKindAccess)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_VerifyWrongSecret(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService("another-secret", 24*time.Hour, 7*24*time.Hour)

	token, err := other.Issue(1, TokenKindAccess)
	require.NoError(t, err)

	_, err = svc.Verify(token, TokenKindAccess)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenService_VerifyGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Verify("not-a-jwt", TokenKindAccess)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}
