package services

import (
	"errors"
	"fmt"
	"strings"

	"modelforge/internal/models"
	"modelforge/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for registration, authentication and
// profile management. Session issuance itself lives at the HTTP layer; the
// service only answers "who is this" questions against the user store.
type AuthService struct {
	userRepo repositories.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// Register creates a new user with a bcrypt-hashed password. The lookup
// before the insert is only a fast path for a friendly conflict message;
// the unique index on email is what actually guarantees uniqueness, and
// its violation is also reported as ErrEmailTaken.
func (s *AuthService) Register(email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)

	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Login authenticates a user by email and password. Unknown email and
// wrong password produce the same error so the API reveals nothing about
// which accounts exist.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the user for an active session.
func (s *AuthService) GetUser(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// UpdateProfile sets or clears the user's display name and returns the
// updated record.
func (s *AuthService) UpdateProfile(id uint, name *string) (*models.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	if err := s.userRepo.UpdateName(id, name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile for user %d: %w", id, err)
	}
	return s.GetUser(id)
}
