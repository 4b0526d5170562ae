package repositories

import (
	"errors"
	"fmt"
	"strings"

	"modelforge/internal/models"

	"gorm.io/gorm"
)

// thumbnailSelect resolves a project's thumbnail to its earliest-created
// image, falling back to the default placeholder. Kept as a raw subquery so
// it runs unchanged on both SQLite and PostgreSQL.
const thumbnailSelect = `COALESCE((SELECT pi.file_path FROM project_images pi WHERE pi.project_id = projects.id ORDER BY pi.created_at ASC, pi.id ASC LIMIT 1), '` + DefaultThumbnail + `') AS thumbnail`

// publicSortColumns is the allow-list of sort keys for the public feed.
var publicSortColumns = map[string]string{
	"created_at": "projects.created_at",
	"updated_at": "projects.updated_at",
	"name":       "projects.name",
	"author":     "users.name",
}

// GORMProjectRepository is a GORM implementation of ProjectRepository.
type GORMProjectRepository struct {
	db *gorm.DB
}

// NewGORMProjectRepository creates a new instance of GORMProjectRepository.
func NewGORMProjectRepository(db *gorm.DB) *GORMProjectRepository {
	return &GORMProjectRepository{
		db: db,
	}
}

// Create inserts a new project for its owning user.
func (r *GORMProjectRepository) Create(project *models.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// ListByUser returns the user's projects, newest first, each annotated with
// its thumbnail.
func (r *GORMProjectRepository) ListByUser(userID uint) ([]models.ProjectSummary, error) {
	var rows []models.ProjectSummary
	err := r.db.Model(&models.Project{}).
		Select("projects.*, " + thumbnailSelect).
		Where("projects.user_id = ?", userID).
		Order("projects.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for user %d: %w", userID, err)
	}
	return rows, nil
}

// ListPublic returns all public projects joined with their owners' display
// info. The search term matches name, description, owner email and owner
// name case-insensitively; sort keys and directions outside the allow-list
// silently fall back to created_at desc.
func (r *GORMProjectRepository) ListPublic(filter PublicFilter) ([]models.ProjectSummary, error) {
	sortColumn, ok := publicSortColumns[filter.Sort]
	if !ok {
		sortColumn = publicSortColumns["created_at"]
	}
	direction := strings.ToLower(filter.Order)
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}

	tx := r.db.Model(&models.Project{}).
		Select("projects.*, users.email AS user_email, users.name AS user_name, " + thumbnailSelect).
		Joins("JOIN users ON users.id = projects.user_id").
		Where("projects.is_public = ?", true)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where(
			"LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(users.name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var rows []models.ProjectSummary
	if err := tx.Order(sortColumn + " " + direction).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list public projects: %w", err)
	}
	return rows, nil
}

// GetOwned retrieves a project only if it belongs to userID. A project
// owned by another user is reported as ErrNotFound.
func (r *GORMProjectRepository) GetOwned(id, userID uint) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &project, nil
}

// Update applies a partial field update to an owned project and returns the
// updated record. The ownership filter is part of the UPDATE itself, so the
// check and the write are a single statement.
func (r *GORMProjectRepository) Update(id, userID uint, fields map[string]interface{}) (*models.Project, error) {
	var project models.Project
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update project %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&project, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes an owned project. With cascadeImages the associated image
// rows go in the same transaction and their file paths are returned so the
// caller can clean up the disk; otherwise image rows are retained.
func (r *GORMProjectRepository) Delete(id, userID uint, cascadeImages bool) ([]string, error) {
	var removedFiles []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Ownership must be settled before any image row is touched.
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Project{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete project %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if cascadeImages {
			var images []models.ProjectImage
			if err := tx.Where("project_id = ?", id).Find(&images).Error; err != nil {
				return fmt.Errorf("failed to collect images of project %d: %w", id, err)
			}
			for _, img := range images {
				removedFiles = append(removedFiles, img.FilePath)
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectImage{}).Error; err != nil {
				return fmt.Errorf("failed to delete images of project %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removedFiles, nil
}
