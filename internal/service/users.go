package service

import (
	"context"
	"errors"
	"fmt"

	"ticketnow/internal/auth"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/logger"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"
	"ticketnow/internal/validation"
)

type UserService struct {
	userRepo UserRepository
}

func NewUserService(deps Dependencies) *UserService {
	return &UserService{userRepo: deps.Users}
}

func (s *UserService) GetAll(ctx context.Context, filter models.UserFilter) (notification.Result[[]models.User], error) {
	filter.Normalize()

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return notification.Result[[]models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return notification.OK(users), nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (notification.Result[*models.User], error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[*models.User](notification.UserNotFound), nil
	}
	return notification.OK(user), nil
}

// Update changes the profile of the user. The username must stay unique.
func (s *UserService) Update(ctx context.Context, id int64, req *models.UpdateUserRequest) (notification.Result[*models.User], error) {
	if list := validation.UpdateUser.Validate(req); list.HasAny() {
		return notification.FailList[*models.User](list), nil
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[*models.User](notification.UserNotFound), nil
	}

	if req.Username != user.Username {
		other, err := s.userRepo.GetByUsername(ctx, req.Username)
		if err != nil {
			return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return notification.Fail[*models.User](notification.UsernameAlreadyTaken), nil
		}
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Document = req.Document
	user.DocumentType = req.DocumentType

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			return notification.Fail[*models.User](notification.UsernameAlreadyTaken), nil
		case errors.Is(err, apperrors.ErrNotFound):
			return notification.Fail[*models.User](notification.UserNotFound), nil
		}
		return notification.Result[*models.User]{}, fmt.Errorf("failed to update user: %w", err)
	}
	return notification.OK(user), nil
}

// UpdatePassword replaces the password after checking the current one
func (s *UserService) UpdatePassword(ctx context.Context, id int64, req *models.UpdatePasswordRequest) (notification.Result[bool], error) {
	if list := validation.UpdatePassword.Validate(req); list.HasAny() {
		return notification.FailList[bool](list), nil
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[bool](notification.UserNotFound), nil
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		return notification.Fail[bool](notification.WrongCurrentPassword), nil
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return notification.Result[bool]{}, err
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
		return notification.Result[bool]{}, fmt.Errorf("failed to update password: %w", err)
	}
	return notification.OK(true), nil
}

// SetActive activates or deactivates an account
func (s *UserService) SetActive(ctx context.Context, id int64, req *models.SetStateRequest) (notification.Result[*models.User], error) {
	if list := validation.SetState.Validate(req); list.HasAny() {
		return notification.FailList[*models.User](list), nil
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[*models.User](notification.UserNotFound), nil
	}

	active := *req.Active
	if user.Active == active {
		if active {
			return notification.Fail[*models.User](notification.UserAlreadyActive), nil
		}
		return notification.Fail[*models.User](notification.UserAlreadyInactive), nil
	}

	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to set user state: %w", err)
	}
	user.Active = active

	logger.WithContext(ctx).Info("User state changed", "target_user_id", id, "active", active)
	return notification.OK(user), nil
}

// ApprovePromoter activates a promoter account waiting for approval
func (s *UserService) ApprovePromoter(ctx context.Context, id int64) (notification.Result[*models.User], error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notification.Fail[*models.User](notification.UserNotFound), nil
	}
	if !user.HasRole(models.RolePromoter) {
		return notification.Fail[*models.User](notification.UserIsNotPromoter), nil
	}
	if user.Active {
		return notification.Fail[*models.User](notification.PromoterAlreadyActive), nil
	}

	if err := s.userRepo.SetActive(ctx, id, true); err != nil {
		return notification.Result[*models.User]{}, fmt.Errorf("failed to approve promoter: %w", err)
	}
	user.Active = true

	logger.WithContext(ctx).Info("Promoter approved", "target_user_id", id)
	return notification.OK(user), nil
}
