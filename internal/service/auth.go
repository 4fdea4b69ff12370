package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketnow/internal/auth"
	"ticketnow/internal/clock"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/logger"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"
	"ticketnow/internal/validation"
)

const tokenType = "Bearer"

type AuthService struct {
	userRepo UserRepository
	tokens   *auth.TokenManager
	clock    clock.Clock
}

func NewAuthService(deps Dependencies) *AuthService {
	return &AuthService{
		userRepo: deps.Users,
		tokens:   deps.Tokens,
		clock:    deps.Clock,
	}
}

// Register creates a customer account. Promoter accounts start inactive and
// must be approved by an admin before they can log in.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (notification.Result[*models.User], error) {
	if list := validation.Register.Validate(req); list.HasAny() {
		return notification.FailList[*models.User](list), nil
	}

	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return notification.Fail[*models.User](notification.UsernameAlreadyTaken), nil
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return notification.Result[*models.User]{}, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Document:     req.Document,
		DocumentType: req.DocumentType,
		Active:       true,
		Roles:        []models.Role{models.RoleCustomer},
	}
	if req.Promoter {
		user.Active = false
		user.Roles = []models.Role{models.RolePromoter}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return notification.Fail[*models.User](notification.UsernameAlreadyTaken), nil
		}
		return notification.Result[*models.User]{}, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx).Info("User registered", "user_id", user.ID, "promoter", req.Promoter)
	return notification.OK(user), nil
}

// Login exchanges credentials for an access token and a refresh token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (notification.Result[*models.TokenResponse], error) {
	if list := validation.Login.Validate(req); list.HasAny() {
		return notification.FailList[*models.TokenResponse](list), nil
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[*models.TokenResponse](notification.InvalidCredentials), nil
	}
	if !user.Active {
		return notification.Fail[*models.TokenResponse](notification.UserInactive), nil
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		return notification.Fail[*models.TokenResponse](notification.InvalidCredentials), nil
	}

	now := s.clock.Now()
	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, err
	}
	hash := auth.HashRefreshToken(refreshToken)
	expiresAt := now.Add(s.tokens.RefreshTokenTTL())

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &hash, &expiresAt); err != nil {
		return notification.Result[*models.TokenResponse]{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return s.tokenResponse(user, refreshToken, now)
}

// Refresh rotates the refresh token. The access token may be expired but must
// carry a valid signature, issuer and audience. The rotated token keeps the
// expiry of the session it replaces.
func (s *AuthService) Refresh(ctx context.Context, req *models.RefreshTokenRequest) (notification.Result[*models.TokenResponse], error) {
	if list := validation.RefreshToken.Validate(req); list.HasAny() {
		return notification.FailList[*models.TokenResponse](list), nil
	}

	claims, err := s.tokens.ParseExpired(req.AccessToken)
	if err != nil {
		return notification.Fail[*models.TokenResponse](notification.InvalidAccessToken), nil
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.Username != claims.Username {
		return notification.Fail[*models.TokenResponse](notification.InvalidAccessToken), nil
	}
	if !user.Active {
		return notification.Fail[*models.TokenResponse](notification.UserInactive), nil
	}

	hash := auth.HashRefreshToken(req.RefreshToken)
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != hash {
		return notification.Fail[*models.TokenResponse](notification.InvalidRefreshToken), nil
	}

	now := s.clock.Now()
	if user.RefreshTokenExpiresAt == nil || !user.RefreshTokenExpiresAt.After(now) {
		return notification.Fail[*models.TokenResponse](notification.RefreshTokenExpired), nil
	}

	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, err
	}
	if err := s.userRepo.RotateRefreshToken(ctx, user.ID, hash, auth.HashRefreshToken(refreshToken)); err != nil {
		if errors.Is(err, apperrors.ErrStateChanged) {
			return notification.Fail[*models.TokenResponse](notification.InvalidRefreshToken), nil
		}
		return notification.Result[*models.TokenResponse]{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.tokenResponse(user, refreshToken, now)
}

// Revoke ends the refresh session of the user. Access tokens already issued
// stay valid until they expire.
func (s *AuthService) Revoke(ctx context.Context, userID int64) (notification.Result[bool], error) {
	err := s.userRepo.SetRefreshToken(ctx, userID, nil, nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return notification.Fail[bool](notification.UserNotFound), nil
	}
	if err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return notification.OK(true), nil
}

func (s *AuthService) RevokeByUsername(ctx context.Context, username string) (notification.Result[bool], error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[bool](notification.UserNotFound), nil
	}
	return s.Revoke(ctx, user.ID)
}

// SeedAdmin creates the configured admin account unless the username exists
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get admin user: %w", err)
	}
	if existing != nil {
		if !existing.HasRole(models.RoleAdmin) {
			return s.userRepo.AddRole(ctx, existing.ID, models.RoleAdmin)
		}
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "TicketNow",
		Active:       true,
		Roles:        []models.Role{models.RoleAdmin},
	}
	if err := s.userRepo.Create(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrDuplicate) {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.WithContext(ctx).Info("Admin user seeded", "username", username)
	return nil
}

func (s *AuthService) tokenResponse(user *models.User, refreshToken string, now time.Time) (notification.Result[*models.TokenResponse], error) {
	accessToken, expiresAt, err := s.tokens.Issue(user, now)
	if err != nil {
		return notification.Result[*models.TokenResponse]{}, err
	}

	return notification.OK(&models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    expiresAt,
	}), nil
}
