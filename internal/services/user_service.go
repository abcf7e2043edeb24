package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/logger"
	"pathgo/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnsupportedImage = errors.New("only jpg and png images are supported")

type UpdateProfileInput struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=60"`
	Email string `json:"email" validate:"omitempty,email"`
}

type DeviceTokenInput struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=android ios"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, input *UpdateProfileInput) (*models.User, error)
	UploadProfilePhoto(ctx context.Context, userID primitive.ObjectID, r io.Reader, filename string) (string, error)
	RegisterDevice(ctx context.Context, userID primitive.ObjectID, input *DeviceTokenInput) error
}

type userService struct {
	userRepo interfaces.UserRepository
	storage  storage.Provider
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, storage storage.Provider, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, input *UpdateProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Email != "" {
		// A changed email address must be verified again.
		current, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.Email != input.Email {
			updates["email"] = input.Email
			updates["is_email_verified"] = false
		}
	}

	if len(updates) > 0 {
		if err := s.userRepo.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) UploadProfilePhoto(ctx context.Context, userID primitive.ObjectID, r io.Reader, filename string) (string, error) {
	if !utils.IsAllowedImageExt(filename) {
		return "", ErrUnsupportedImage
	}

	resized, err := utils.ResizeProfilePhoto(r, filename)
	if err != nil {
		return "", ErrUnsupportedImage
	}

	key := fmt.Sprintf("profiles/%s/%d.jpg", userID.Hex(), time.Now().Unix())
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      bytes.NewReader(resized),
		ContentType: "image/jpeg",
		Size:        int64(len(resized)),
		Metadata:    map[string]string{"user_id": userID.Hex()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload profile photo: %w", err)
	}

	if err := s.userRepo.UpdateProfilePhoto(ctx, userID, resp.URL); err != nil {
		return "", err
	}

	s.logger.WithField("user_id", userID.Hex()).Info("profile photo updated")
	return resp.URL, nil
}

func (s *userService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, input *DeviceTokenInput) error {
	return s.userRepo.UpdateDeviceToken(ctx, userID, input.Token, input.Platform)
}
