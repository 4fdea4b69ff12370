package service

import (
	"context"
	"testing"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret123"

func registerRequest(username string, promoter bool) *models.RegisterRequest {
	return &models.RegisterRequest{
		Username:     username,
		Email:        username + "@example.com",
		Password:     testPassword,
		FirstName:    "Maria",
		LastName:     "Silva",
		Document:     "12345678900",
		DocumentType: "CPF",
		Promoter:     promoter,
	}
}

func register(t *testing.T, env *testEnv, username string, promoter bool) *models.User {
	t.Helper()
	res, err := env.services.Auth.Register(context.Background(), registerRequest(username, promoter))
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.Notifications)
	return res.Value
}

func login(t *testing.T, env *testEnv, username string) *models.TokenResponse {
	t.Helper()
	res, err := env.services.Auth.Login(context.Background(), &models.LoginRequest{Username: username, Password: testPassword})
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.Notifications)
	return res.Value
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	customer := register(t, env, "maria", false)
	assert.True(t, customer.Active)
	assert.Equal(t, []models.Role{models.RoleCustomer}, customer.Roles)
	assert.NotEqual(t, testPassword, customer.PasswordHash)

	promoter := register(t, env, "produtora", true)
	assert.False(t, promoter.Active)
	assert.Equal(t, []models.Role{models.RolePromoter}, promoter.Roles)

	dup, err := env.services.Auth.Register(context.Background(), registerRequest("maria", false))
	require.NoError(t, err)
	assert.True(t, dup.Notifications.Has(notification.UsernameAlreadyTaken.Key))
}

func TestRegisterPasswordPolicy(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Secret123", true},
		{"secret123", false},
		{"SECRET123", false},
		{"SecretPwd", false},
		{"Sec123", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			env := newTestEnv(t)
			req := registerRequest("joao", false)
			req.Password = tt.password

			res, err := env.services.Auth.Register(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Succeeded(), res.Notifications)
			if !tt.valid {
				assert.True(t, res.Notifications.Has("password"))
			}
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := register(t, env, "maria", false)
	register(t, env, "produtora", true)

	tokens := login(t, env, "maria")
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := env.tokens.Parse(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.HasRole(models.RoleCustomer))

	stored, _ := env.store.User(user.ID)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, auth.HashRefreshToken(tokens.RefreshToken), *stored.RefreshTokenHash)

	tests := []struct {
		name     string
		username string
		password string
		key      string
	}{
		{"unknown user", "nobody", testPassword, notification.InvalidCredentials.Key},
		{"wrong password", "maria", "Wrong1234", notification.InvalidCredentials.Key},
		{"promoter awaiting approval", "produtora", testPassword, notification.UserInactive.Key},
		{"missing password", "maria", "", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.services.Auth.Login(context.Background(), &models.LoginRequest{Username: tt.username, Password: tt.password})
			require.NoError(t, err)
			assert.True(t, res.Notifications.Has(tt.key), res.Notifications)
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "maria", false)
	first := login(t, env, "maria")

	res, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken:  first.AccessToken,
		RefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.Notifications)
	assert.NotEqual(t, first.RefreshToken, res.Value.RefreshToken)

	reused, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken:  first.AccessToken,
		RefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, reused.Notifications.Has(notification.InvalidRefreshToken.Key))

	next, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken:  res.Value.AccessToken,
		RefreshToken: res.Value.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, next.Succeeded(), next.Notifications)
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	env := newTestEnv(t)
	user := register(t, env, "maria", false)
	tokens := login(t, env, "maria")

	expired, _, err := env.tokens.Issue(user, env.now.Add(-2*time.Hour))
	require.NoError(t, err)

	res, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken:  expired,
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded(), res.Notifications)
}

func TestRefreshRejections(t *testing.T) {
	env := newTestEnv(t)
	user := register(t, env, "maria", false)
	tokens := login(t, env, "maria")

	foreign := auth.NewTokenManager(auth.Config{
		Secret: "other-secret", Issuer: "ticketnow", Audience: "ticketnow-clients", AccessTokenTTL: time.Hour,
	})
	forged, _, err := foreign.Issue(user, env.now)
	require.NoError(t, err)

	res, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken: forged, RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.InvalidAccessToken.Key))

	res, err = env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken: tokens.AccessToken, RefreshToken: "not-the-token",
	})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.InvalidRefreshToken.Key))

	stored, _ := env.store.User(user.ID)
	past := env.now.Add(-time.Minute)
	stored.RefreshTokenExpiresAt = &past
	env.store.PutUser(stored)

	res, err = env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, res.Notifications.Has(notification.RefreshTokenExpired.Key))
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "maria", false)
	tokens := login(t, env, "maria")

	res, err := env.services.Auth.RevokeByUsername(context.Background(), "maria")
	require.NoError(t, err)
	require.True(t, res.Succeeded())

	refresh, err := env.services.Auth.Refresh(context.Background(), &models.RefreshTokenRequest{
		AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.True(t, refresh.Notifications.Has(notification.InvalidRefreshToken.Key))

	// access tokens stay valid until they expire
	_, err = env.tokens.Parse(tokens.AccessToken)
	assert.NoError(t, err)

	missing, err := env.services.Auth.RevokeByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, missing.Notifications.Has(notification.UserNotFound.Key))
}

func TestSeedAdmin(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.services.Auth.SeedAdmin(context.Background(), "admin", "admin@example.com", testPassword))
	require.NoError(t, env.services.Auth.SeedAdmin(context.Background(), "admin", "admin@example.com", testPassword))

	tokens := login(t, env, "admin")
	claims, err := env.tokens.Parse(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(models.RoleAdmin))
}
