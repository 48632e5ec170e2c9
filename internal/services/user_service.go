package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chat-api/internal/models"
	"chat-api/internal/repositories/postgres"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// GoogleProfile is the subset of the Google userinfo payload the service
// needs to create or match an account.
type GoogleProfile struct {
	ID     string
	Email  string
	Name   string
	Avatar string
}

type UserService struct {
	users  UserRepository
	logger *slog.Logger
}

func NewUserService(users UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, logger: logger}
}

// FindByID also serves as the user directory for websocket and HTTP
// authentication: refresh-token checks resolve the stored tokenVersion
// through it.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetOrCreateGoogleUser matches the OAuth profile to an existing account by
// google id, creating one on first login.
func (s *UserService) GetOrCreateGoogleUser(ctx context.Context, profile GoogleProfile) (*models.User, error) {
	user, err := s.users.FindByGoogleID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, postgres.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Username: profile.Name,
		Email:    profile.Email,
		Avatar:   profile.Avatar,
		GoogleID: profile.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user from google profile: %w", err)
	}
	s.logger.Info("created user from google login", "userId", user.ID)
	return user, nil
}

// Feed returns every other user's public profile.
func (s *UserService) Feed(ctx context.Context, userID string) ([]models.PublicUser, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.PublicUser, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Email = strings.TrimSpace(req.Email)
	user.Username = strings.TrimSpace(req.Username)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// RevokeTokens bumps the user's tokenVersion: every refresh token issued
// before this call stops working (logout everywhere).
func (s *UserService) RevokeTokens(ctx context.Context, userID string) error {
	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// CreateDevUser backs the development-only user factory route.
func (s *UserService) CreateDevUser(ctx context.Context, req models.DevCreateUserRequest) (*models.User, error) {
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}
