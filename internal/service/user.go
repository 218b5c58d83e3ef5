package service

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
)

type UserService struct {
	store    UserStore
	password *PasswordService
	logger   *zap.Logger
}

func NewUserService(store UserStore, password *PasswordService, logger *zap.Logger) *UserService {
	return &UserService{store: store, password: password, logger: logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return model.PublicUser{}, apperr.NotFound("User not found")
		}
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.PublicUser, error) {
	if req.Name == nil && req.Email == nil {
		return model.PublicUser{}, apperr.Validation("At least one field must be provided")
	}

	var details []string
	if req.Email != nil && !emailPattern.MatchString(*req.Email) {
		details = append(details, "Invalid email format")
	}
	if req.Name != nil && utf8.RuneCountInString(*req.Name) < 2 {
		details = append(details, "Name must be at least 2 characters long")
	}
	if len(details) > 0 {
		return model.PublicUser{}, apperr.Validation("Validation failed", details...)
	}

	existing, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return model.PublicUser{}, apperr.NotFound("User not found")
		}
		return model.PublicUser{}, err
	}

	if req.Email != nil && *req.Email != existing.Email {
		if other, err := s.store.GetUserByEmail(ctx, *req.Email); err == nil && other != nil {
			return model.PublicUser{}, apperr.Conflict("Email is already in use")
		} else if err != nil && !isNoRows(err) {
			return model.PublicUser{}, err
		}
	}

	updated, err := s.store.UpdateUserProfile(ctx, userID, req.Name, req.Email)
	if err != nil {
		return model.PublicUser{}, err
	}
	return updated.Public(), nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("Old password and new password are required")
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return apperr.Validation("New password must be at least 8 characters long")
	}
	if len(newPassword) > maxPasswordBytes {
		return apperr.Validation("New password must not exceed 72 characters")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if !s.password.Verify(oldPassword, user.PasswordHash) {
		return apperr.Authentication("Current password is incorrect")
	}

	hash, err := s.password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}
