package auth_test

import (
	"testing"
	"time"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", time.Hour)
	verifier := auth.NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(1, "user@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Issue(1, "user@example.com")
	require.NoError(t, err)

	_, err = manager.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_Verify_Garbage(t *testing.T) {
	manager := auth.NewTokenManager("test-secret", time.Hour)

	_, err := manager.Verify("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
