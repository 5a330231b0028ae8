package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "housemarket/internal/errors"
	"housemarket/internal/model"
	"housemarket/internal/repository"
	"housemarket/internal/storage"
)

// UserService exposes profile pages and the profile image upload.
type UserService interface {
	Profile(ctx context.Context, userID string) (*model.Profile, error)
	UploadProfileImage(ctx context.Context, userID string, image storage.Upload) (string, error)
}

type userService struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	images   storage.ImageStore
	log      *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository, listings repository.ListingRepository, images storage.ImageStore, log *zap.Logger) UserService {
	return &userService{users: users, listings: listings, images: images, log: log.Named("user_service")}
}

// Profile joins the user with every listing they own. A user with no
// listings gets an empty list.
func (s *userService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.listings.FindByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("find listings of %s: %w", user.ID, err)
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return &model.Profile{User: user.Profile(), Listings: listings}, nil
}

func (s *userService) UploadProfileImage(ctx context.Context, userID string, image storage.Upload) (string, error) {
	if len(image.Data) == 0 {
		return "", apperrors.Validation("no image uploaded", "image")
	}
	if _, err := s.findUser(ctx, userID); err != nil {
		return "", err
	}

	url, err := s.images.Save(ctx, image)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return "", err
		}
		return "", fmt.Errorf("store profile image: %w", err)
	}
	if err := s.users.UpdateProfileImage(ctx, userID, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NotFound("user not found")
		}
		return "", fmt.Errorf("update profile image: %w", err)
	}
	s.log.Info("profile image updated", zap.String("user_id", userID))
	return url, nil
}

func (s *userService) findUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
