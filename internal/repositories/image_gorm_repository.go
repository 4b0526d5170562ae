package repositories

import (
	"errors"
	"fmt"

	"modelforge/internal/models"

	"gorm.io/gorm"
)

// GORMImageRepository is a GORM implementation of ImageRepository.
type GORMImageRepository struct {
	db *gorm.DB
}

// NewGORMImageRepository creates a new instance of GORMImageRepository.
func NewGORMImageRepository(db *gorm.DB) *GORMImageRepository {
	return &GORMImageRepository{
		db: db,
	}
}

// CreateBatch inserts all image rows of one upload in a single transaction:
// either the whole batch is recorded or none of it is.
func (r *GORMImageRepository) CreateBatch(images []*models.ProjectImage) error {
	if len(images) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, image := range images {
			if err := tx.Create(image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create image batch: %w", err)
	}
	return nil
}

// ListByProject returns a project's images in upload order.
func (r *GORMImageRepository) ListByProject(projectID uint) ([]models.ProjectImage, error) {
	var images []models.ProjectImage
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images for project %d: %w", projectID, err)
	}
	return images, nil
}

// GetOwned retrieves an image only if its parent project belongs to userID.
// An image reachable solely through someone else's project is reported as
// ErrNotFound.
func (r *GORMImageRepository) GetOwned(id, userID uint) (*models.ProjectImage, error) {
	var image models.ProjectImage
	err := r.db.Joins("JOIN projects ON projects.id = project_images.project_id").
		Where("project_images.id = ? AND projects.user_id = ?", id, userID).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image %d: %w", id, err)
	}
	return &image, nil
}

// Delete removes an image row.
func (r *GORMImageRepository) Delete(id uint) error {
	res := r.db.Delete(&models.ProjectImage{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete image %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
