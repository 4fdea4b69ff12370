package auth

import (
	"testing"
	"time"

	"ticketnow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Secret:          "test-secret",
		Issuer:          "ticketnow",
		Audience:        "ticketnow-api",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{ID: 7, Username: "maria", Roles: []models.Role{models.RoleCustomer}}
}

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager(testConfig())

	token, expiresAt, err := m.Issue(testUser(), time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "maria", claims.Username)
	assert.True(t, claims.HasRole(models.RoleCustomer))
	assert.False(t, claims.HasRole(models.RoleAdmin))
	assert.NotEmpty(t, claims.ID)
}

func TestEveryTokenHasItsOwnID(t *testing.T) {
	m := NewTokenManager(testConfig())
	now := time.Now()

	first, _, err := m.Issue(testUser(), now)
	require.NoError(t, err)
	second, _, err := m.Issue(testUser(), now)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager(testConfig())

	token, _, err := m.Issue(testUser(), time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := m.ParseExpired(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	m := NewTokenManager(testConfig())

	otherCfg := testConfig()
	otherCfg.Secret = "another-secret"
	foreign, _, err := NewTokenManager(otherCfg).Issue(testUser(), time.Now())
	require.NoError(t, err)

	_, err = m.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseExpired(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherCfg = testConfig()
	otherCfg.Audience = "another-api"
	wrongAudience, _, err := NewTokenManager(otherCfg).Issue(testUser(), time.Now())
	require.NoError(t, err)

	_, err = m.ParseExpired(wrongAudience)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseExpired("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokens(t *testing.T) {
	first, err := NewRefreshToken()
	require.NoError(t, err)
	second, err := NewRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, HashRefreshToken(first), 64)
	assert.Equal(t, HashRefreshToken(first), HashRefreshToken(first))
	assert.NotEqual(t, HashRefreshToken(first), HashRefreshToken(second))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "Secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "secret123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-bcrypt-hash", "Secret123")
	assert.Error(t, err)
}
