package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"nft-marketplace/internal/domain"
	"nft-marketplace/pkg/logger"

	"github.com/pkg/errors"
)

const (
	maxUsernameLength = 50
	maxBioLength      = 500
)

type UpdateProfileInput struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type UserService struct {
	repo domain.UserRepository
	now  func() time.Time
	log  logger.Logger
}

func NewUserService(repo domain.UserRepository, log logger.Logger) *UserService {
	return &UserService{repo: repo, now: time.Now, log: log}
}

func (s *UserService) GetUser(ctx context.Context, address string) (*domain.User, error) {
	addr, err := requireAddress("address", address)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, addr)
}

// UpsertProfile creates the profile on first write; created_at survives later updates.
func (s *UserService) UpsertProfile(ctx context.Context, address string, in UpdateProfileInput) (*domain.User, error) {
	addr, err := requireAddress("address", address)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username is required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, invalid("username exceeds %d characters", maxUsernameLength)
	}
	if utf8.RuneCountInString(in.Bio) > maxBioLength {
		return nil, invalid("bio exceeds %d characters", maxBioLength)
	}

	now := s.now().UTC()
	user := &domain.User{
		Address:   addr,
		Username:  username,
		Bio:       in.Bio,
		AvatarURL: strings.TrimSpace(in.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	existing, err := s.repo.GetUser(ctx, addr)
	switch {
	case err == nil:
		user.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("Profile saved", "address", addr)
	return user, nil
}
