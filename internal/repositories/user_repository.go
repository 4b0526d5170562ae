package repositories

import "modelforge/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	UpdateName(id uint, name *string) error
	UpdateAvatarPath(id uint, path string) error
}
