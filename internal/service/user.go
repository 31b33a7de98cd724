package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"minitwit/internal/model"
	"minitwit/internal/repository"
)

// UserService owns account records and credential checks.
type UserService struct {
	repo     repository.UserRepository
	hashCost int
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
	}
}

// FindByUsername returns model.ErrUserNotFound when no user has that exact name.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// FindByID returns model.ErrUserNotFound when id is unknown.
func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register validates the form and stores a new user with a bcrypt hash.
// Validation failures are reported in order: empty username, invalid email,
// empty password, password mismatch, username taken. Names of fixed routes
// count as taken.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)

	switch {
	case username == "":
		return nil, model.ErrEmptyUsername
	case !strings.Contains(req.Email, "@"):
		return nil, model.ErrInvalidEmail
	case req.Password == "":
		return nil, model.ErrEmptyPassword
	case req.Password != req.Password2:
		return nil, model.ErrPasswordMismatch
	}

	if model.IsReservedUsername(username) {
		return nil, model.ErrUsernameTaken
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Email:    strings.TrimSpace(req.Email),
		PwHash:   string(hashed),
	}

	// a concurrent registration can still win the unique index
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "component", "UserService", "user", user.ID)
	return user, nil
}

// VerifyLogin returns model.ErrUnknownUser or model.ErrBadPassword on failure.
// The username is trimmed the same way Register stores it.
func (s *UserService) VerifyLogin(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PwHash), []byte(req.Password)); err != nil {
		return nil, model.ErrBadPassword
	}

	return user, nil
}
