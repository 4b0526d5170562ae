package repositories

import "modelforge/internal/models"

// ImageRepository defines the interface for project image data access.
// Ownership of an image is always derived through its parent project's
// user_id via a join, never from a denormalized owner field.
type ImageRepository interface {
	CreateBatch(images []*models.ProjectImage) error
	ListByProject(projectID uint) ([]models.ProjectImage, error)
	GetOwned(id, userID uint) (*models.ProjectImage, error)
	Delete(id uint) error
}
